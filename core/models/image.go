package models

import (
	"fmt"
	"strings"
)

// ImageType identifies which image of an item a texture is used as.
type ImageType string

const (
	SmallPreview ImageType = "SmallPreview"
	LargePreview ImageType = "LargePreview"
	Icon         ImageType = "Icon"
	PackImage    ImageType = "PackImage"
)

// ImageTypes lists every image kind.
var ImageTypes = []ImageType{SmallPreview, LargePreview, Icon, PackImage}

// Valid reports whether t is one of ImageTypes.
func (t ImageType) Valid() bool {
	for _, known := range ImageTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseImageType matches s against ImageTypes ignoring case.
func ParseImageType(s string) (ImageType, error) {
	for _, known := range ImageTypes {
		if strings.EqualFold(string(known), strings.TrimSpace(s)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown image type %q", s)
}

// ImageRef points an item's image kind at a texture asset.
type ImageRef struct {
	TemplateID string
	Type       ImageType
	AssetPath  string
}
