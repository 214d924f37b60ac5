package integration

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/connector/internal/domain/integration"
)

// MediaImageParser links images as media objects. A media object is built
// once per image and shared by every variation linking it.
type MediaImageParser struct {
	identities integration.IdentityService
}

// NewMediaImageParser creates a new MediaImageParser
func NewMediaImageParser(identities integration.IdentityService) *MediaImageParser {
	return &MediaImageParser{identities: identities}
}

// ParseImage adds the media object of the image to the result set unless it
// is present and returns the link. Images without URL are ignored.
func (p *MediaImageParser) ParseImage(
	ctx context.Context,
	image *integration.RawImage,
	texts []integration.RawText,
	result *integration.ResultSet,
) (*integration.Image, error) {
	if strings.TrimSpace(image.URL) == "" {
		return nil, nil
	}

	identity, err := p.identities.FindOneOrCreate(ctx, strconv.Itoa(image.ID), integration.PlentymarketsAdapterName, integration.ObjectTypeMedia)
	if err != nil {
		return nil, fmt.Errorf("resolve media identity: %w", err)
	}

	if !result.Has(identity.ObjectIdentifier) {
		media, err := p.media(ctx, identity.ObjectIdentifier, image, texts)
		if err != nil {
			return nil, err
		}
		result.Add(media)
	}

	return &integration.Image{
		MediaIdentifier: identity.ObjectIdentifier,
		Position:        image.Position,
	}, nil
}

func (p *MediaImageParser) media(
	ctx context.Context,
	identifier string,
	image *integration.RawImage,
	texts []integration.RawText,
) (*integration.Media, error) {
	media := &integration.Media{
		Identifier:   identifier,
		Link:         image.URL,
		Translations: make([]integration.Translation, 0),
	}

	if len(image.Names) == 0 {
		// unnamed images take the product name
		if len(texts) > 0 {
			media.Name = texts[0].Name1
		}
		return media, nil
	}

	media.Name = image.Names[0].Name
	media.AlternateName = image.Names[0].Alternate
	for _, name := range image.Names {
		languageIdentifier, ok, err := languageIdentifier(ctx, p.identities, name.Lang)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		media.Translations = append(media.Translations, integration.Translation{
			LanguageIdentifier: languageIdentifier,
			Property:           integration.TranslationPropertyName,
			Value:              name.Name,
		})
		if name.Alternate != "" {
			media.Translations = append(media.Translations, integration.Translation{
				LanguageIdentifier: languageIdentifier,
				Property:           integration.TranslationPropertyAlternateName,
				Value:              name.Alternate,
			})
		}
	}
	return media, nil
}

// Ensure MediaImageParser implements ImageParser
var _ integration.ImageParser = (*MediaImageParser)(nil)
