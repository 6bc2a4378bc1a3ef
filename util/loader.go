// Package util - Input file discovery for the command line tools.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// imageExtensions are the file types the codec can decode.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".gif": true, ".tif": true, ".tiff": true, ".webp": true,
}

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// LoadImageFiles reads one image file, or every image file in a directory
// sorted by name. Nested directories and other file types are skipped.
//
// Arguments:
// - path: An image file or a directory of image files.
//
// Returns:
// - []ImageFile: The files in name order.
// - error: Error if loading fails or a directory holds no images.
func LoadImageFiles(path string) ([]ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []ImageFile{{Path: path, Data: data}}, nil
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() || !IsImageFile(file.Name()) {
			continue
		}
		imgPath := filepath.Join(path, file.Name())
		data, readErr := os.ReadFile(imgPath)
		if readErr != nil {
			return nil, readErr
		}
		images = append(images, ImageFile{Path: imgPath, Data: data})
	}
	if len(images) == 0 {
		return nil, errors.Errorf("no image files in %s", path)
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Path < images[j].Path
	})

	return images, nil
}

// OutputPath returns the annotated image path for an input: the input path
// with its extension replaced by "_out.png".
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_out.png"
}
