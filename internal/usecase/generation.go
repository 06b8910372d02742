package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/dominantcolor"
	"github.com/google/uuid"
)

const (
	imageGenerateTimeout = 2 * time.Minute
	videoInitiateTimeout = 30 * time.Second
	sourceFetchTimeout   = 30 * time.Second
)

// GeneratedImage is the generator's synchronous result for images.
type GeneratedImage struct {
	Data     []byte
	Width    int
	Height   int
	FileSize int64
	MimeType string
}

type VideoParams struct {
	Model           string
	DurationSeconds int
	AspectRatio     string
}

type OperationStatus struct {
	Name     string
	Done     bool
	Error    string
	VideoURL string
	Duration float64
}

type GenerateAssetOption struct {
	ProductID     uuid.UUID
	AssetTypeID   uuid.UUID
	SourceImageID *uuid.UUID
	ParentAssetID *uuid.UUID
	Instructions  string
	VideoParams   VideoParams
}

// GenerateImage runs the full image generation flow: resolve prompt,
// allocate the next version, persist a PENDING record, call the generator,
// store the result and finalize the record as COMPLETED or FAILED. The
// version is consumed even when generation fails; versions are never reused.
func (u Usecase) GenerateImage(ctx context.Context, opt GenerateAssetOption) (GeneratedAsset, error) {
	product, err := u.repo.GetProductByID(ctx, opt.ProductID)
	if err != nil {
		return GeneratedAsset{}, err
	}
	at, err := u.repo.GetAssetTypeByID(ctx, opt.AssetTypeID)
	if err != nil {
		return GeneratedAsset{}, err
	}
	if at.Kind != AssetKindImage {
		return GeneratedAsset{}, ErrValidation{
			Code:    "asset_type_not_image",
			Message: "asset type " + at.Name + " does not produce images",
		}
	}

	prompt, err := u.ResolvePrompt(ctx, opt.ProductID, opt.AssetTypeID, opt.Instructions)
	if err != nil {
		return GeneratedAsset{}, err
	}

	var source []byte
	if opt.SourceImageID != nil {
		if source, err = u.fetchSourceImage(ctx, *opt.SourceImageID); err != nil {
			return GeneratedAsset{}, err
		}
	}

	version, err := u.repo.NextAssetVersion(ctx, opt.ProductID, opt.AssetTypeID)
	if err != nil {
		return GeneratedAsset{}, err
	}

	asset, err := u.repo.CreateGeneratedAsset(ctx, GeneratedAsset{
		ProductID:     opt.ProductID,
		AssetTypeID:   opt.AssetTypeID,
		Status:        AssetStatusPending,
		Version:       version,
		PromptUsed:    prompt,
		SourceImageID: opt.SourceImageID,
		ParentAssetID: opt.ParentAssetID,
	})
	if err != nil {
		return GeneratedAsset{}, err
	}

	genCtx, cancel := context.WithTimeout(ctx, imageGenerateTimeout)
	defer cancel()

	img, err := u.generator.GenerateImage(genCtx, prompt, source)
	if err != nil {
		return u.failAsset(ctx, asset, wrapGeneratorErr(err))
	}

	path := fmt.Sprintf("products/%s/%s/v%d.jpg", opt.ProductID, at.Name, version)
	if err := u.fileStorageProvider.UploadFile(ctx, path, img.Data); err != nil {
		return u.failAsset(ctx, asset, fmt.Errorf("store generated image: %w", err))
	}

	asset.Status = AssetStatusCompleted
	asset.Path = path
	asset.Width = img.Width
	asset.Height = img.Height
	asset.FileSize = img.FileSize
	asset.Colors = extractColors(img.Data)

	asset, err = u.repo.UpdateGeneratedAsset(ctx, asset)
	if err != nil {
		return GeneratedAsset{}, err
	}

	u.appendAssetActivity(ctx, "IMAGE_GENERATED", asset, product, at)
	return asset, nil
}

// GenerateVideo initiates asynchronous video generation. The record stays
// PENDING holding the operation handle; CheckVideoOperation finalizes it.
func (u Usecase) GenerateVideo(ctx context.Context, opt GenerateAssetOption) (GeneratedAsset, error) {
	product, err := u.repo.GetProductByID(ctx, opt.ProductID)
	if err != nil {
		return GeneratedAsset{}, err
	}
	at, err := u.repo.GetAssetTypeByID(ctx, opt.AssetTypeID)
	if err != nil {
		return GeneratedAsset{}, err
	}
	if at.Kind != AssetKindVideo {
		return GeneratedAsset{}, ErrValidation{
			Code:    "asset_type_not_video",
			Message: "asset type " + at.Name + " does not produce videos",
		}
	}

	prompt, err := u.ResolvePrompt(ctx, opt.ProductID, opt.AssetTypeID, opt.Instructions)
	if err != nil {
		return GeneratedAsset{}, err
	}

	version, err := u.repo.NextAssetVersion(ctx, opt.ProductID, opt.AssetTypeID)
	if err != nil {
		return GeneratedAsset{}, err
	}

	asset, err := u.repo.CreateGeneratedAsset(ctx, GeneratedAsset{
		ProductID:     opt.ProductID,
		AssetTypeID:   opt.AssetTypeID,
		Status:        AssetStatusPending,
		Version:       version,
		PromptUsed:    prompt,
		SourceImageID: opt.SourceImageID,
		ParentAssetID: opt.ParentAssetID,
		AIModel:       opt.VideoParams.Model,
	})
	if err != nil {
		return GeneratedAsset{}, err
	}

	genCtx, cancel := context.WithTimeout(ctx, videoInitiateTimeout)
	defer cancel()

	operation, err := u.generator.GenerateVideo(genCtx, prompt, opt.VideoParams)
	if err != nil {
		return u.failAsset(ctx, asset, wrapGeneratorErr(err))
	}

	asset.OperationName = operation
	asset, err = u.repo.UpdateGeneratedAsset(ctx, asset)
	if err != nil {
		return GeneratedAsset{}, err
	}

	u.appendAssetActivity(ctx, "VIDEO_GENERATION_STARTED", asset, product, at)
	return asset, nil
}

// CheckVideoOperation polls the generator for a pending video asset and
// finalizes the record once the operation resolves.
func (u Usecase) CheckVideoOperation(ctx context.Context, assetID uuid.UUID) (GeneratedAsset, error) {
	asset, err := u.repo.GetGeneratedAssetByID(ctx, assetID)
	if err != nil {
		return GeneratedAsset{}, err
	}
	if asset.OperationName == "" {
		return GeneratedAsset{}, ErrValidation{
			Code:    "asset_not_video",
			Message: "asset " + assetID.String() + " has no pending video operation",
		}
	}
	if asset.Status != AssetStatusPending {
		return asset, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, videoInitiateTimeout)
	defer cancel()

	op, err := u.generator.GetOperation(opCtx, asset.OperationName)
	if err != nil {
		return GeneratedAsset{}, wrapGeneratorErr(err)
	}
	if !op.Done {
		return asset, nil
	}

	if op.Error != "" {
		return u.failAsset(ctx, asset, errors.New(op.Error))
	}

	data, err := fetchURL(ctx, op.VideoURL)
	if err != nil {
		return u.failAsset(ctx, asset, fmt.Errorf("download generated video: %w", err))
	}

	path := fmt.Sprintf("products/%s/videos/v%d.mp4", asset.ProductID, asset.Version)
	if err := u.fileStorageProvider.UploadFile(ctx, path, data); err != nil {
		return u.failAsset(ctx, asset, fmt.Errorf("store generated video: %w", err))
	}

	asset.Status = AssetStatusCompleted
	asset.Path = path
	asset.FileSize = int64(len(data))
	asset.Duration = op.Duration
	return u.repo.UpdateGeneratedAsset(ctx, asset)
}

// PollPendingVideoOperations sweeps every PENDING asset holding an
// operation handle. Individual poll failures are logged and skipped so
// one broken operation cannot stall the rest.
func (u Usecase) PollPendingVideoOperations(ctx context.Context) (int, error) {
	assets, _, err := u.repo.ListGeneratedAssets(ctx, ListGeneratedAssetsOption{
		Statuses: []AssetStatus{AssetStatusPending},
	})
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, asset := range assets {
		if asset.OperationName == "" {
			continue
		}
		updated, err := u.CheckVideoOperation(ctx, asset.ID)
		if err != nil {
			u.log().WarnContext(ctx, "video operation poll failed",
				"asset_id", asset.ID, "operation", asset.OperationName, "err", err)
			continue
		}
		if updated.Status != AssetStatusPending {
			resolved++
		}
	}
	return resolved, nil
}

func (u Usecase) failAsset(ctx context.Context, asset GeneratedAsset, cause error) (GeneratedAsset, error) {
	asset.Status = AssetStatusFailed
	asset.Error = cause.Error()
	if _, err := u.repo.UpdateGeneratedAsset(ctx, asset); err != nil {
		u.log().ErrorContext(ctx, "failed to record generation failure",
			"asset_id", asset.ID, "err", err)
	}
	return GeneratedAsset{}, cause
}

func (u Usecase) fetchSourceImage(ctx context.Context, id uuid.UUID) ([]byte, error) {
	src, err := u.repo.GetSourceImageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.Path != "" {
		return u.fileStorageProvider.GetFile(ctx, src.Path)
	}
	if src.OriginURL != "" {
		return fetchURL(ctx, src.OriginURL)
	}
	return nil, ErrValidation{
		Code:    "source_image_empty",
		Message: "source image " + id.String() + " has no stored file or origin url",
	}
}

func fetchURL(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, sourceFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func wrapGeneratorErr(err error) error {
	code := "generator_failed"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "generator_timeout"
	}
	var es ErrExternalService
	if errors.As(err, &es) {
		return err
	}
	return ErrExternalService{
		Service: "generator",
		Code:    code,
		Message: "asset generation failed",
		Err:     err,
	}
}

func extractColors(data []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	colors := make(map[int][4]uint8)
	for i, c := range dominantcolor.FindN(img, 4) {
		colors[i] = [4]uint8{c.R, c.G, c.B, c.A}
	}

	b, _ := json.Marshal(colors)
	return b
}

func (u Usecase) appendAssetActivity(ctx context.Context, action string, asset GeneratedAsset, product Product, at AssetType) {
	userID, err := actorID(ctx)
	if err != nil {
		u.log().WarnContext(ctx, "activity log skipped", "action", action, "err", err)
		return
	}

	meta, _ := json.Marshal(map[string]any{
		"product_title":   product.Title,
		"product_asin":    product.ASIN,
		"asset_type_name": at.Name,
		"version":         asset.Version,
		"status":          asset.Status,
	})

	if _, err := u.repo.CreateActivityLog(ctx, ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: "GENERATED_ASSET",
		EntityID:   asset.ID,
		Metadata:   meta,
	}); err != nil {
		u.log().ErrorContext(ctx, "failed to append activity log",
			"action", action, "asset_id", asset.ID, "err", err)
	}
}
