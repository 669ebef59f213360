package validation

import (
	"fmt"
	"regexp"
)

// RegionTypePattern определяет допустимый формат идентификатора типа региона
// Только латинские буквы (a-z, A-Z), цифры (0-9), дефис (-), нижнее подчеркивание (_)
// Длина: 1-64 символа
var RegionTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const (
	// MaxDescriptorLen максимальная длина descriptor региона
	MaxDescriptorLen = 256
)

// ValidateRegionType проверяет, что идентификатор типа региона соответствует
// требованиям. Тип региона участвует в stateKey и в имени файла кэша,
// поэтому набор символов намеренно узкий.
func ValidateRegionType(regionType string) error {
	if regionType == "" {
		return fmt.Errorf("region type cannot be empty")
	}

	if !RegionTypePattern.MatchString(regionType) {
		return fmt.Errorf("region type can only contain letters (a-z, A-Z), numbers (0-9), hyphens (-) and underscores (_)")
	}

	return nil
}

// ValidateDescriptor проверяет descriptor региона.
// Descriptor - произвольный фильтр коллекции, но ограничен по длине,
// чтобы stateKey оставался пригодным для ключей хранилища.
func ValidateDescriptor(descriptor string) error {
	if len(descriptor) > MaxDescriptorLen {
		return fmt.Errorf("descriptor must not exceed %d characters", MaxDescriptorLen)
	}

	return nil
}

// unsafeFileChars символы, недопустимые в имени файла кэша
var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName приводит stateKey к имени, безопасному для файловой
// системы: каждый недопустимый символ заменяется на нижнее подчеркивание.
// Замена не инъективна; уникальность обеспечивает вызывающий код,
// который строит stateKey из уже провалидированных частей.
func SanitizeFileName(stateKey string) string {
	return unsafeFileChars.ReplaceAllString(stateKey, "_")
}
