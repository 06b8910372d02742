package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/listora/listora/internal/config"
)

// The nine fixed marketplace image positions.
var AmazonSlots = []string{
	"MAIN", "PT01", "PT02", "PT03", "PT04", "PT05", "PT06", "PT07", "PT08",
}

const MaxPushBatchSize = 9

type PushStatus string

const (
	PushStatusPending PushStatus = "PENDING"
	PushStatusSuccess PushStatus = "SUCCESS"
	PushStatusFailed  PushStatus = "FAILED"
)

// AmazonImagePush is the durable record of one (asset, slot) push attempt.
// A new row is created per attempt; a row only ever changes to record the
// outcome of the attempt it represents.
type AmazonImagePush struct {
	ID             uuid.UUID
	AssetID        uuid.UUID
	ASIN           string
	Slot           string
	ImageURL       string
	Status         PushStatus
	SubmissionID   string
	AmazonResponse []byte
	ErrorMessage   string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Asset *GeneratedAsset
}

type ListImagePushesOption struct {
	Skip  int
	Limit int

	AssetIDs uuid.UUIDs
	ASIN     string
	Statuses []PushStatus
}

type PushItem struct {
	AssetID uuid.UUID
	Slot    string
}

type PushBatchResult struct {
	SubmissionID string
	Status       PushStatus
	Pushes       []AmazonImagePush
}

// PushOutcome resolves a set of PENDING push rows to their terminal state.
type PushOutcome struct {
	Status       PushStatus
	SubmissionID string
	Response     []byte
	ErrorMessage string
	CompletedAt  time.Time
}

// ListingImage is one slot assignment sent to the marketplace.
type ListingImage struct {
	Slot     string
	ImageURL string
}

// ListingSubmission is the marketplace's outcome for a batched listing
// update. The API is all-or-nothing; there is no per-slot result.
type ListingSubmission struct {
	SubmissionID string
	Accepted     bool
	Status       string
	Issues       []string
	Raw          []byte
}

const (
	marketplaceCallTimeout = 45 * time.Second
	publishLockTTL         = 2 * time.Minute

	// PENDING rows older than this are assumed to have lost their outcome
	// to a crash and are picked up by reconciliation.
	pushStaleAfter = 10 * time.Minute
)

// PushToAmazon publishes up to nine approved images to the product's
// marketplace listing. All preconditions are checked before any external
// call or durable write; a violation fails the whole batch. Once the
// external call returns, every row in the batch receives the same terminal
// status. A transport failure leaves the rows PENDING for reconciliation.
func (u Usecase) PushToAmazon(ctx context.Context, productID uuid.UUID, items []PushItem) (PushBatchResult, error) {
	userID, err := actorID(ctx)
	if err != nil {
		return PushBatchResult{}, err
	}

	if len(items) == 0 || len(items) > MaxPushBatchSize {
		return PushBatchResult{}, ErrValidation{
			Code:    "invalid_batch_size",
			Message: fmt.Sprintf("push batch must contain 1 to %d items, got %d", MaxPushBatchSize, len(items)),
		}
	}

	product, err := u.repo.GetProductByID(ctx, productID)
	if err != nil {
		return PushBatchResult{}, err
	}
	if product.ASIN == "" {
		return PushBatchResult{}, ErrValidation{
			Code:    "product_no_asin",
			Message: "product " + productID.String() + " has no marketplace identifier",
		}
	}

	seen := make(map[string]bool, len(items))
	assets := make([]GeneratedAsset, 0, len(items))
	for _, item := range items {
		if !slices.Contains(AmazonSlots, item.Slot) {
			return PushBatchResult{}, ErrValidation{
				Code:    "invalid_slot",
				Message: "unknown image slot " + item.Slot,
			}
		}
		if seen[item.Slot] {
			return PushBatchResult{}, ErrValidation{
				Code:    "duplicate_slot",
				Message: "slot " + item.Slot + " assigned more than once",
			}
		}
		seen[item.Slot] = true

		asset, err := u.repo.GetGeneratedAssetByID(ctx, item.AssetID)
		if err != nil {
			return PushBatchResult{}, err
		}
		if asset.ProductID != productID {
			return PushBatchResult{}, ErrValidation{
				Code:    "asset_wrong_product",
				Message: "asset " + item.AssetID.String() + " does not belong to product " + productID.String(),
			}
		}
		if asset.Status != AssetStatusApproved {
			return PushBatchResult{}, ErrValidation{
				Code:    "asset_not_approved",
				Message: "asset " + item.AssetID.String() + " is " + string(asset.Status) + ", only APPROVED assets can be pushed",
			}
		}
		asset.AmazonSlot = item.Slot
		assets = append(assets, asset)
	}

	// One batch per product at a time across instances.
	release, err := u.locker.Acquire(ctx, "publish:"+productID.String(), publishLockTTL)
	if err != nil {
		return PushBatchResult{}, ErrConflict{
			Code:    "publish_in_progress",
			Message: "another publish batch is running for this product",
		}
	}
	defer release()

	publicURL, err := u.fileStorageProvider.GetPublicURL(ctx)
	if err != nil {
		return PushBatchResult{}, fmt.Errorf("resolve public url: %w", err)
	}

	var (
		pushes   = make([]AmazonImagePush, 0, len(assets))
		listing  = make([]ListingImage, 0, len(assets))
		assetIDs = make([]uuid.UUID, 0, len(assets))
	)
	for _, asset := range assets {
		imageURL := fmt.Sprintf("%s/%s", publicURL, asset.Path)
		pushes = append(pushes, AmazonImagePush{
			AssetID:  asset.ID,
			ASIN:     product.ASIN,
			Slot:     asset.AmazonSlot,
			ImageURL: imageURL,
			Status:   PushStatusPending,
		})
		listing = append(listing, ListingImage{Slot: asset.AmazonSlot, ImageURL: imageURL})
		assetIDs = append(assetIDs, asset.ID)
	}

	// Durable record of intent before the external call, so a crash
	// mid-push is observable and reconcilable.
	pushes, err = u.repo.CreateImagePushes(ctx, pushes)
	if err != nil {
		return PushBatchResult{}, err
	}
	if err := u.repo.SetAssetPushStatus(ctx, assetIDs, AssetPushStatusPushing, nil); err != nil {
		return PushBatchResult{}, err
	}

	mpCtx, cancel := context.WithTimeout(ctx, marketplaceCallTimeout)
	defer cancel()

	sku, pt := listingIdentity(product)
	submission, callErr := u.marketplace.UpdateListingImages(mpCtx, sku, listing, pt)
	if callErr != nil && !isDefinitiveFailure(callErr) {
		// Transport-level failure: the marketplace may or may not have
		// applied the update. Leave the rows PENDING for reconciliation.
		return PushBatchResult{}, ErrExternalService{
			Service: "amazon",
			Code:    "push_outcome_unknown",
			Message: "listing update did not return an outcome; batch left pending",
			Err:     callErr,
		}
	}

	now := time.Now().UTC()
	outcome := PushOutcome{CompletedAt: now, SubmissionID: submission.SubmissionID, Response: submission.Raw}
	switch {
	case callErr != nil:
		outcome.Status = PushStatusFailed
		outcome.ErrorMessage = callErr.Error()
	case submission.Accepted:
		outcome.Status = PushStatusSuccess
	default:
		outcome.Status = PushStatusFailed
		outcome.ErrorMessage = submissionIssues(submission)
	}

	pushIDs := make([]uuid.UUID, 0, len(pushes))
	for _, p := range pushes {
		pushIDs = append(pushIDs, p.ID)
	}
	if err := u.repo.ResolveImagePushes(ctx, pushIDs, outcome); err != nil {
		return PushBatchResult{}, err
	}

	var pushedAt *time.Time
	assetStatus := AssetPushStatusFailed
	if outcome.Status == PushStatusSuccess {
		assetStatus = AssetPushStatusSuccess
		pushedAt = &now
	}
	if err := u.repo.SetAssetPushStatus(ctx, assetIDs, assetStatus, pushedAt); err != nil {
		return PushBatchResult{}, err
	}

	u.appendPushActivity(ctx, userID, product, items, outcome)

	if outcome.Status == PushStatusFailed {
		u.sendPushFailureAlert(ctx, product, len(items), outcome.ErrorMessage)
	}

	for i := range pushes {
		pushes[i].Status = outcome.Status
		pushes[i].SubmissionID = outcome.SubmissionID
		pushes[i].ErrorMessage = outcome.ErrorMessage
		pushes[i].CompletedAt = &now
	}

	return PushBatchResult{
		SubmissionID: outcome.SubmissionID,
		Status:       outcome.Status,
		Pushes:       pushes,
	}, nil
}

func (u Usecase) ListImagePushes(ctx context.Context, opt ListImagePushesOption) ([]AmazonImagePush, int, error) {
	return u.repo.ListImagePushes(ctx, opt)
}

// ReconcilePendingPushes resolves push rows stuck in PENDING past the stale
// window: rows with a recorded submission id are re-queried against the
// marketplace; rows without one can never learn their outcome and are
// failed as unresolvable.
func (u Usecase) ReconcilePendingPushes(ctx context.Context) (int, error) {
	stale, err := u.repo.ListStalePendingPushes(ctx, time.Now().UTC().Add(-pushStaleAfter))
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, push := range stale {
		outcome := PushOutcome{CompletedAt: time.Now().UTC(), SubmissionID: push.SubmissionID}

		if push.SubmissionID == "" {
			outcome.Status = PushStatusFailed
			outcome.ErrorMessage = "no submission recorded; outcome unresolvable"
		} else {
			mpCtx, cancel := context.WithTimeout(ctx, marketplaceCallTimeout)
			sub, err := u.marketplace.GetSubmissionStatus(mpCtx, push.SubmissionID)
			cancel()
			if err != nil {
				u.log().WarnContext(ctx, "push reconciliation query failed",
					"push_id", push.ID, "submission_id", push.SubmissionID, "err", err)
				continue
			}
			outcome.Response = sub.Raw
			if sub.Accepted {
				outcome.Status = PushStatusSuccess
			} else {
				outcome.Status = PushStatusFailed
				outcome.ErrorMessage = submissionIssues(sub)
			}
		}

		if err := u.repo.ResolveImagePushes(ctx, []uuid.UUID{push.ID}, outcome); err != nil {
			u.log().ErrorContext(ctx, "push reconciliation update failed",
				"push_id", push.ID, "err", err)
			continue
		}

		var pushedAt *time.Time
		assetStatus := AssetPushStatusFailed
		if outcome.Status == PushStatusSuccess {
			assetStatus = AssetPushStatusSuccess
			pushedAt = &outcome.CompletedAt
		}
		if err := u.repo.SetAssetPushStatus(ctx, []uuid.UUID{push.AssetID}, assetStatus, pushedAt); err != nil {
			u.log().ErrorContext(ctx, "push reconciliation asset update failed",
				"push_id", push.ID, "err", err)
		}
		resolved++
	}

	return resolved, nil
}

func (u Usecase) appendPushActivity(ctx context.Context, userID uuid.UUID, product Product, items []PushItem, outcome PushOutcome) {
	slots := make([]string, 0, len(items))
	for _, item := range items {
		slots = append(slots, item.Slot)
	}
	meta, _ := json.Marshal(map[string]any{
		"product_title": product.Title,
		"asin":          product.ASIN,
		"slots":         slots,
		"status":        outcome.Status,
		"submission_id": outcome.SubmissionID,
		"error":         outcome.ErrorMessage,
	})

	if _, err := u.repo.CreateActivityLog(ctx, ActivityLog{
		UserID:     userID,
		Action:     "AMAZON_PUSH",
		EntityType: "PRODUCT",
		EntityID:   product.ID,
		Metadata:   meta,
	}); err != nil {
		u.log().ErrorContext(ctx, "push activity log failed",
			"product_id", product.ID, "err", err)
	}
}

func (u Usecase) sendPushFailureAlert(ctx context.Context, product Product, count int, reason string) {
	to := os.Getenv(config.ENV_KEY_ALERT_EMAIL)
	if to == "" || u.mailer == nil {
		return
	}
	if err := u.mailer.SendEmail(ctx, Email{
		To:      []string{to},
		From:    "alerts@listora.io",
		Subject: fmt.Sprintf("Amazon push failed: %s", product.ASIN),
		Body: fmt.Sprintf(
			"<p>Pushing %d image(s) for <b>%s</b> (ASIN %s) failed.</p><p>%s</p>",
			count, product.Title, product.ASIN, reason),
	}); err != nil {
		u.log().ErrorContext(ctx, "push failure alert email failed",
			"product_id", product.ID, "err", err)
	}
}

// isDefinitiveFailure reports whether the marketplace answered at all. A
// timeout or transport error carries no outcome; an API-level rejection
// does.
func isDefinitiveFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var es ErrExternalService
	if errors.As(err, &es) {
		return es.Code == "listing_rejected"
	}
	return false
}

func submissionIssues(sub ListingSubmission) string {
	if len(sub.Issues) == 0 {
		return "listing update not accepted (status " + sub.Status + ")"
	}
	msg := sub.Issues[0]
	for _, issue := range sub.Issues[1:] {
		msg += "; " + issue
	}
	return msg
}

// listingIdentity pulls the seller SKU and marketplace product type out of
// the product's opaque metadata, falling back to the ASIN when no SKU was
// imported.
func listingIdentity(p Product) (string, string) {
	var meta struct {
		SKU         string `json:"sku"`
		ProductType string `json:"product_type"`
	}
	_ = json.Unmarshal(p.Metadata, &meta)

	sku := meta.SKU
	if sku == "" {
		sku = p.ASIN
	}
	pt := meta.ProductType
	if pt == "" {
		pt = "PRODUCT"
	}
	return sku, pt
}
