package dataverse

import (
	"context"
	"fmt"

	"catalog-harvester/core/utils"
	"catalog-harvester/feature/harvest/dataset"
	"catalog-harvester/feature/harvest/source"
)

// TypeName is the source type handled by this harvester.
const TypeName = "dataverse"

// Harvester implements source.Harvester for Dataverse installations.
type Harvester struct {
	client *Client
}

// NewHarvester creates a new Dataverse harvester.
func NewHarvester(client *Client) *Harvester {
	return &Harvester{client: client}
}

// Name returns the source type.
func (h *Harvester) Name() string {
	return TypeName
}

// Info describes the harvester.
func (h *Harvester) Info() source.Info {
	return source.Info{
		Name:        TypeName,
		Title:       "Dataverse",
		Description: "Harvests datasets from a Dataverse installation through its search API",
	}
}

// FetchCatalog fetches the catalog using the configured filter and identifier field.
func (h *Harvester) FetchCatalog(ctx context.Context, baseURL string, cfg *source.Config) (*source.FetchResult, error) {
	return h.client.Fetch(ctx, baseURL, cfg.Filter, cfg.IDFieldName)
}

// BuildDatasetDict maps a staged payload onto a dataset. The name is left
// empty; the importer derives it.
func (h *Harvester) BuildDatasetDict(guid string, payload map[string]any) (*dataset.Package, map[string]any, error) {
	if payload == nil {
		return nil, nil, fmt.Errorf("no metadata for %s", guid)
	}

	title := utils.ToString(payload["name"])
	if title == "" {
		title = guid
	}

	tags := utils.ToStringSlice(payload["subjects"])
	tags = append(tags, utils.ToStringSlice(payload["keywords"])...)

	pkg := &dataset.Package{
		Title: title,
		Notes: utils.ToString(payload["description"]),
		URL:   utils.ToString(payload["url"]),
		Tags:  tags,
	}
	pkg.SetExtra(dataset.ExtraGUID, guid)
	if publisher := utils.ToString(payload["publisher"]); publisher != "" {
		pkg.SetExtra("publisher", publisher)
	}
	if published := utils.ToString(payload["published_at"]); published != "" {
		pkg.SetExtra("published_at", published)
	}
	if citation := utils.ToString(payload["citation"]); citation != "" {
		pkg.SetExtra("citation", citation)
	}

	return pkg, payload, nil
}

// AttachResources links the landing page of the record as a resource.
func (h *Harvester) AttachResources(metadata map[string]any, pkg *dataset.Package) {
	landing := utils.ToString(metadata["url"])
	if landing == "" {
		return
	}
	pkg.Resources = append(pkg.Resources, dataset.Resource{
		Name:        "Dataverse landing page",
		URL:         landing,
		Format:      "HTML",
		Description: "Record page on the source Dataverse installation",
	})
}
