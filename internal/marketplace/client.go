package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/listora/listora/internal/usecase"
)

// Client wraps the Amazon selling partner listing, catalog and
// inventory endpoints used by the publish pipeline.
type Client struct {
	endpoint      string
	refreshToken  string
	sellerID      string
	marketplaceID string
	http          *http.Client
}

func NewClient(endpoint, refreshToken, sellerID, marketplaceID string) (*Client, error) {
	if endpoint == "" || refreshToken == "" || sellerID == "" || marketplaceID == "" {
		return nil, usecase.ErrConfiguration{
			Key:     "AMAZON",
			Message: "amazon endpoint, refresh token, seller id and marketplace id are all required",
		}
	}
	return &Client{
		endpoint:      endpoint,
		refreshToken:  refreshToken,
		sellerID:      sellerID,
		marketplaceID: marketplaceID,
		http:          &http.Client{},
	}, nil
}

type listingPatchRequest struct {
	ProductType string             `json:"productType"`
	Patches     []listingPatchItem `json:"patches"`
}

type listingPatchItem struct {
	Op    string         `json:"op"`
	Path  string         `json:"path"`
	Value []listingImage `json:"value"`
}

type listingImage struct {
	Variant string `json:"variant"`
	Link    string `json:"link"`
}

type listingSubmissionResponse struct {
	SubmissionID string   `json:"submissionId"`
	Status       string   `json:"status"`
	Issues       []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"issues"`
}

// UpdateListingImages submits one JSON patch per slot against the SKU's
// listing. Amazon treats the submission as all-or-nothing.
func (c *Client) UpdateListingImages(ctx context.Context, sku string, images []usecase.ListingImage, productType string) (usecase.ListingSubmission, error) {
	req := listingPatchRequest{ProductType: productType}
	for _, img := range images {
		req.Patches = append(req.Patches, listingPatchItem{
			Op:    "replace",
			Path:  "/attributes/" + slotAttribute(img.Slot),
			Value: []listingImage{{Variant: img.Slot, Link: img.ImageURL}},
		})
	}

	path := fmt.Sprintf("/listings/2021-08-01/items/%s/%s?marketplaceIds=%s",
		url.PathEscape(c.sellerID), url.PathEscape(sku), url.QueryEscape(c.marketplaceID))

	raw, status, err := c.do(ctx, http.MethodPatch, path, req)
	if err != nil {
		return usecase.ListingSubmission{}, err
	}

	var res listingSubmissionResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return usecase.ListingSubmission{}, fmt.Errorf("decode submission: %w", err)
	}

	sub := convertSubmission(res, raw)
	if status >= 400 || !sub.Accepted {
		return sub, usecase.ErrExternalService{
			Service: "amazon",
			Code:    "listing_rejected",
			Message: fmt.Sprintf("listing submission rejected with status %s", res.Status),
		}
	}
	return sub, nil
}

func (c *Client) GetSubmissionStatus(ctx context.Context, submissionID string) (usecase.ListingSubmission, error) {
	path := "/listings/2021-08-01/submissions/" + url.PathEscape(submissionID)
	raw, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return usecase.ListingSubmission{}, err
	}

	var res listingSubmissionResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return usecase.ListingSubmission{}, fmt.Errorf("decode submission: %w", err)
	}
	return convertSubmission(res, raw), nil
}

type inventoryResponse struct {
	Items []struct {
		ASIN        string `json:"asin"`
		SKU         string `json:"sellerSku"`
		ProductName string `json:"productName"`
		Quantity    int    `json:"totalQuantity"`
	} `json:"inventorySummaries"`
}

func (c *Client) ListInventory(ctx context.Context, onlyInStock bool) ([]usecase.InventoryItem, error) {
	path := "/fba/inventory/v1/summaries?marketplaceIds=" + url.QueryEscape(c.marketplaceID)
	raw, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var res inventoryResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}

	items := make([]usecase.InventoryItem, 0, len(res.Items))
	for _, it := range res.Items {
		if onlyInStock && it.Quantity == 0 {
			continue
		}
		items = append(items, usecase.InventoryItem{
			ASIN:        it.ASIN,
			SKU:         it.SKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		})
	}
	return items, nil
}

type catalogItemResponse struct {
	ASIN      string `json:"asin"`
	Summaries []struct {
		ItemName     string `json:"itemName"`
		Brand        string `json:"brand"`
		Manufacturer string `json:"manufacturer"`
	} `json:"summaries"`
	ProductTypes []struct {
		ProductType string `json:"productType"`
	} `json:"productTypes"`
	Images []struct {
		Images []struct {
			Variant string `json:"variant"`
			Link    string `json:"link"`
		} `json:"images"`
	} `json:"images"`
}

func (c *Client) GetCatalogItem(ctx context.Context, asin string) (usecase.CatalogItem, error) {
	path := fmt.Sprintf("/catalog/2022-04-01/items/%s?marketplaceIds=%s&includedData=summaries,images,productTypes",
		url.PathEscape(asin), url.QueryEscape(c.marketplaceID))
	raw, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return usecase.CatalogItem{}, err
	}

	var res catalogItemResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return usecase.CatalogItem{}, fmt.Errorf("decode catalog item: %w", err)
	}

	item := usecase.CatalogItem{ASIN: res.ASIN}
	if len(res.Summaries) > 0 {
		item.Title = res.Summaries[0].ItemName
		item.Brand = res.Summaries[0].Brand
		item.Manufacturer = res.Summaries[0].Manufacturer
	}
	if len(res.ProductTypes) > 0 {
		item.ProductType = res.ProductTypes[0].ProductType
	}
	for _, group := range res.Images {
		for _, img := range group.Images {
			item.Images = append(item.Images, usecase.CatalogImage{
				Variant: img.Variant,
				URL:     img.Link,
			})
		}
	}
	return item, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Amz-Access-Token", c.refreshToken)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, res.StatusCode, err
	}
	if res.StatusCode >= 500 {
		return nil, res.StatusCode, usecase.ErrExternalService{
			Service: "amazon",
			Code:    "amazon_unavailable",
			Message: fmt.Sprintf("amazon %s %s: status %d", method, path, res.StatusCode),
		}
	}
	return raw, res.StatusCode, nil
}

func convertSubmission(res listingSubmissionResponse, raw []byte) usecase.ListingSubmission {
	sub := usecase.ListingSubmission{
		SubmissionID: res.SubmissionID,
		Status:       res.Status,
		Accepted:     res.Status == "ACCEPTED",
		Raw:          raw,
	}
	for _, issue := range res.Issues {
		sub.Issues = append(sub.Issues, issue.Message)
	}
	return sub
}

// slotAttribute maps a slot name onto Amazon's listing attribute.
func slotAttribute(slot string) string {
	if slot == "MAIN" {
		return "main_product_image_locator"
	}
	return "other_product_image_locator_" + slot[len(slot)-1:]
}
