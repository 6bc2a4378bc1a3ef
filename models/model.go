// Package models - Model size tags, artifact naming and the loaded-model registry.
package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/go-detect/common"
)

// SizeTag selects one of the pretrained model variants.
type SizeTag string

const (
	// SizeNano is the smallest, fastest variant.
	SizeNano SizeTag = "n"
	// SizeSmall is the small variant.
	SizeSmall SizeTag = "s"
	// SizeMedium is the default variant.
	SizeMedium SizeTag = "m"
	// SizeLarge is the large variant.
	SizeLarge SizeTag = "l"
	// SizeXLarge is the largest, most accurate variant.
	SizeXLarge SizeTag = "x"
)

// SizeTags lists every supported size tag in increasing model size.
var SizeTags = []SizeTag{SizeNano, SizeSmall, SizeMedium, SizeLarge, SizeXLarge}

// ParseSizeTag validates a size tag. Matching is case sensitive.
//
// Arguments:
//   - s: The requested tag.
//
// Returns:
//   - SizeTag: The validated tag.
//   - error: A common.KindModelLoad error for an unknown tag.
func ParseSizeTag(s string) (SizeTag, error) {
	for _, tag := range SizeTags {
		if string(tag) == s {
			return tag, nil
		}
	}
	names := make([]string, len(SizeTags))
	for i, tag := range SizeTags {
		names[i] = string(tag)
	}
	return "", common.E(common.KindModelLoad, "models.ParseSizeTag",
		"unknown model size %q (expected one of %s)", s, strings.Join(names, ", "))
}

// ArtifactPath returns the model file for tag: <dir>/detect_<tag>.onnx.
func ArtifactPath(dir string, tag SizeTag) string {
	return filepath.Join(dir, fmt.Sprintf("detect_%s.onnx", tag))
}
