package web

import (
	"context"

	"github.com/google/uuid"

	"github.com/pricebook/pricebook/internal/catalog"
	"github.com/pricebook/pricebook/internal/store"
)

// UploadStore is the persistence surface the handlers need.
// Satisfied by *store.Store; tests substitute an in-memory fake.
type UploadStore interface {
	Insert(ctx context.Context, u store.Upload) error
	Get(ctx context.Context, id uuid.UUID) (store.Upload, error)
	List(ctx context.Context, limit int) ([]store.Upload, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// uploadResponse is the reply to a successful upload: the stored metadata
// plus the freshly parsed catalog.
type uploadResponse struct {
	Upload  store.Upload   `json:"upload"`
	Catalog catalogPayload `json:"catalog"`
}

// catalogPayload is the catalog shaped for the UI: raw numeric values kept
// intact, display strings added alongside.
type catalogPayload struct {
	Currency string         `json:"currency"`
	Groups   []groupPayload `json:"groups"`
}

type groupPayload struct {
	ParentName string           `json:"parentName"`
	Family     string           `json:"family"`
	Variants   []variantPayload `json:"variants"`
}

type variantPayload struct {
	catalog.Variant
	Display priceDisplay `json:"display"`
}

// priceDisplay carries the localized rendering of the four price tiers.
// Formatting never feeds back into the numeric model.
type priceDisplay struct {
	StandardPrice string `json:"standardPrice"`
	FloorPrice    string `json:"floorPrice"`
	GivePrice     string `json:"givePrice"`
	GSAPrice      string `json:"gsaPrice"`
}

// buildCatalogPayload attaches display prices to a parsed catalog.
func (s *Server) buildCatalogPayload(c catalog.Catalog) catalogPayload {
	payload := catalogPayload{
		Currency: s.formatter.Code(),
		Groups:   make([]groupPayload, 0, len(c)),
	}

	for _, g := range c {
		gp := groupPayload{
			ParentName: g.ParentName,
			Family:     g.Family,
			Variants:   make([]variantPayload, 0, len(g.Variants)),
		}
		for _, v := range g.Variants {
			gp.Variants = append(gp.Variants, variantPayload{
				Variant: v,
				Display: priceDisplay{
					StandardPrice: s.formatter.Format(v.StandardPrice),
					FloorPrice:    s.formatter.Format(v.FloorPrice),
					GivePrice:     s.formatter.Format(v.GivePrice),
					GSAPrice:      s.formatter.Format(v.GSAPrice),
				},
			})
		}
		payload.Groups = append(payload.Groups, gp)
	}

	return payload
}
