// Package locale translates message keys using key=value language files.
package locale

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sandertv/gophertunnel/minecraft/text"
	"golang.org/x/text/language"
)

// localeData represents a mapping of translation keys to their respective values for a specific language.
type localeData map[string]string

var (
	mu sync.RWMutex
	// locales is a map of registered locales keyed by language tags.
	locales = make(map[language.Tag]localeData)
)

// Register registers a new locale from the file <dir>/<lang>.lang. Lines are
// "key=value"; empty lines and lines starting with '#' are ignored.
func Register(lang language.Tag, dir string) error {
	file, err := os.Open(filepath.Join(dir, lang.String()+".lang"))
	if err != nil {
		return fmt.Errorf("could not open lang file: %w", err)
	}
	defer file.Close()

	data := make(localeData)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err = scanner.Err(); err != nil {
		return fmt.Errorf("error reading lang file: %w", err)
	}

	mu.Lock()
	locales[lang] = data
	mu.Unlock()
	return nil
}

// Translate translates a key to English and colours the result. Arguments are
// substituted for the placeholders %1, %2, ... and are never interpreted as
// colour tags.
func Translate(key string, args ...any) string {
	translation, ok := lookup(language.English, key)
	if !ok {
		return missing(key)
	}
	return text.Colourf(format(translation), args...)
}

// TranslateL translates a key to a specified language without colouring it.
// If the language is not registered, it falls back to English.
func TranslateL(lang language.Tag, key string, args ...any) string {
	translation, ok := lookup(lang, key)
	if !ok {
		return missing(key)
	}
	for i, arg := range args {
		translation = strings.ReplaceAll(translation, fmt.Sprintf("%%%d", i+1), fmt.Sprint(arg))
	}
	return translation
}

// lookup ...
func lookup(lang language.Tag, key string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()

	locale, ok := locales[lang]
	if !ok {
		locale = locales[language.English]
	}
	translation, ok := locale[key]
	return translation, ok
}

// missing ...
func missing(key string) string {
	return fmt.Sprintf("missing translation for '%s'", key)
}

// format turns a translation into a format string: %N becomes the Nth argument
// and any other '%' is escaped.
func format(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteString("%%")
			continue
		}
		fmt.Fprintf(&b, "%%[%s]v", s[i+1:j])
		i = j - 1
	}
	return b.String()
}
