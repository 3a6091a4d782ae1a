// internal/tradein/devicekey.go
package tradein

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidDeviceKey = stderrors.New("invalid device key")

var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// DeviceKey identifies a device for valuation: the brand code and the model
// code the valuation service knows it by.
type DeviceKey struct {
	BrandCode string `json:"brandCode"`
	ModelCode string `json:"modelCode"`
}

func (k DeviceKey) Validate() error {
	if !codePattern.MatchString(k.BrandCode) {
		return fmt.Errorf("%w: brand code %q", ErrInvalidDeviceKey, k.BrandCode)
	}
	if !codePattern.MatchString(k.ModelCode) {
		return fmt.Errorf("%w: model code %q", ErrInvalidDeviceKey, k.ModelCode)
	}
	return nil
}

func (k DeviceKey) IsZero() bool {
	return k.BrandCode == "" && k.ModelCode == ""
}

func (k DeviceKey) String() string {
	return k.BrandCode + "/" + k.ModelCode
}

func ParseDeviceKey(s string) (DeviceKey, error) {
	brand, model, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return DeviceKey{}, fmt.Errorf("%w: %q", ErrInvalidDeviceKey, s)
	}
	k := DeviceKey{BrandCode: brand, ModelCode: model}
	return k, k.Validate()
}

// ParseLegacyIDs accepts the hyphenated identifiers the storefront used
// before device keys existed: the brand code is the suffix of brandID and the
// model code the suffix of capacityID.
func ParseLegacyIDs(brandID, capacityID string) (DeviceKey, error) {
	brand, err := legacySuffix(brandID)
	if err != nil {
		return DeviceKey{}, err
	}
	model, err := legacySuffix(capacityID)
	if err != nil {
		return DeviceKey{}, err
	}
	k := DeviceKey{BrandCode: brand, ModelCode: model}
	return k, k.Validate()
}

func legacySuffix(id string) (string, error) {
	i := strings.LastIndex(id, "-")
	if i < 0 || i == len(id)-1 {
		return "", fmt.Errorf("%w: legacy id %q has no code suffix", ErrInvalidDeviceKey, id)
	}
	return id[i+1:], nil
}
