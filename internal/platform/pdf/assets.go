package pdf

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog"
)

// Asset is a validated raster ready for embedding. Type matches the format
// names the document library expects ("JPG" or "PNG").
type Asset struct {
	Data []byte
	Type string
}

// Assets holds the optional brand rasters drawn on every document. A nil
// entry renders without that raster.
type Assets struct {
	Logo      *Asset
	Signature *Asset
}

// LoadAssets reads the brand rasters from disk. Missing, unreadable, or
// malformed files are logged and treated as absent; document generation must
// never fail because branding is broken.
func LoadAssets(logoPath, signaturePath string, logger zerolog.Logger) Assets {
	return Assets{
		Logo:      loadAsset(logoPath, logger),
		Signature: loadAsset(signaturePath, logger),
	}
}

func loadAsset(path string, logger zerolog.Logger) *Asset {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("brand asset unavailable")
		return nil
	}
	asset := DecodeAsset(data)
	if asset == nil {
		logger.Warn().Str("path", path).Msg("brand asset is not a valid JPEG or PNG")
	}
	return asset
}

// DecodeAsset validates raster bytes and identifies their format. Returns nil
// for anything that is not a decodable JPEG or PNG.
func DecodeAsset(data []byte) *Asset {
	if len(data) == 0 {
		return nil
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	switch format {
	case "jpeg":
		return &Asset{Data: data, Type: "JPG"}
	case "png":
		return &Asset{Data: data, Type: "PNG"}
	default:
		return nil
	}
}
