package aiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Ошибки ступеней извлечения JSON из ответа модели.
var (
	// ErrDirectParse ответ целиком не является валидным JSON.
	ErrDirectParse = errors.New("response is not valid JSON")
	// ErrFencedBlock в ответе нет код-блока с валидным JSON.
	ErrFencedBlock = errors.New("no valid JSON in fenced code block")
	// ErrObjectExtract в ответе не найден валидный JSON-объект.
	ErrObjectExtract = errors.New("no valid JSON object in response")
)

var (
	fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON извлекает JSON-объект из текста ответа модели в dst.
// Извлечение деградирует по ступеням: прямой парсинг всего текста, затем
// содержимое код-блока, затем первый JSON-объект по регулярному выражению.
// Итоговая ошибка указывает последнюю неудавшуюся ступень, предыдущие
// ступени доступны через errors.Is.
func ExtractJSON(text string, dst any) error {
	trimmed := strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(trimmed), dst); err == nil {
		return nil
	}

	if m := fencedRe.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), dst); err == nil {
			return nil
		}
	}

	if m := objectRe.FindString(trimmed); m != "" {
		if err := json.Unmarshal([]byte(m), dst); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %w: %w", ErrObjectExtract, ErrFencedBlock, ErrDirectParse)
}
