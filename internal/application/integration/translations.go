package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/connector/internal/domain/integration"
)

// translate resolves the language of every localized name; names in an
// unmapped language are dropped
func translate(
	ctx context.Context,
	identities integration.IdentityService,
	names []integration.LocalizedName,
	property string,
) ([]integration.Translation, error) {
	translations := make([]integration.Translation, 0, len(names))
	for _, name := range names {
		languageIdentifier, ok, err := languageIdentifier(ctx, identities, name.Lang)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		translations = append(translations, integration.Translation{
			LanguageIdentifier: languageIdentifier,
			Property:           property,
			Value:              name.Name,
		})
	}
	return translations, nil
}

// languageIdentifier returns the canonical identifier of a platform
// language, false if the language is not mapped
func languageIdentifier(ctx context.Context, identities integration.IdentityService, lang string) (string, bool, error) {
	language, err := identities.FindOneBy(ctx, integration.PlentymarketsCriteria(lang, integration.ObjectTypeLanguage))
	if errors.Is(err, integration.ErrIdentityNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve language %q: %w", lang, err)
	}
	return language.ObjectIdentifier, true, nil
}
