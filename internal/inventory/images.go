package inventory

import (
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
)

// ImageResolver turns a catalog image id into a URL the browser can load.
type ImageResolver interface {
	URL(publicID string) (string, error)
}

// StaticImages serves product images from the store's own /images path.
type StaticImages struct {
	Prefix string
}

func (s StaticImages) URL(publicID string) (string, error) {
	prefix := strings.TrimRight(s.Prefix, "/")
	if prefix == "" {
		prefix = "/images"
	}
	return fmt.Sprintf("%s/%s.png", prefix, strings.TrimLeft(publicID, "/")), nil
}

// CloudinaryImages builds delivery URLs for images hosted on Cloudinary.
type CloudinaryImages struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryImages(cloudinaryURL string) (*CloudinaryImages, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("inventory: cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryImages{cld: cld}, nil
}

func (c *CloudinaryImages) URL(publicID string) (string, error) {
	img, err := c.cld.Image(publicID)
	if err != nil {
		return "", err
	}
	return img.String()
}
