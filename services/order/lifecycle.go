package order

import (
	"context"
	"strings"
	"time"

	"easypro/models"
	"easypro/utils"

	"go.uber.org/zap"
)

// Assign hands an unassigned or pending order to the given writer. The state
// change and the slot debit commit together; a writer with no slot for the
// order's deadline fails the whole operation.
func (s *DefaultOrderService) Assign(ctx context.Context, orderID, writerID string) (*models.Order, error) {
	if strings.TrimSpace(writerID) == "" {
		return nil, utils.NewValidationError("writer id is required")
	}
	existing, err := s.Repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sweep(ctx, existing); err != nil {
		return nil, err
	}

	reason := "assigned to writer " + writerID + " on " + time.Now().Format("2006-01-02")
	o, w, err := s.Repo.Assign(ctx, orderID, writerID, reason)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order assigned",
		zap.String("orderId", o.ID),
		zap.String("writerId", writerID),
		zap.Int("slotsLeft", w.SlotsLeft))
	return o, nil
}

// SubmitResponse uploads the delivered files and appends them to the order's
// response list. Titles and files pair up one to one; a count mismatch fails
// before anything is uploaded.
func (s *DefaultOrderService) SubmitResponse(ctx context.Context, orderID string, titles, localFilePaths []string) (*models.Order, error) {
	if len(titles) == 0 {
		return nil, utils.NewValidationError("at least one response is required")
	}
	if len(titles) != len(localFilePaths) {
		return nil, utils.NewValidationError("each response title needs exactly one file")
	}
	for _, t := range titles {
		if strings.TrimSpace(t) == "" {
			return nil, utils.NewValidationError("response titles cannot be empty")
		}
	}

	urls, err := s.Storage.UploadFiles(ctx, localFilePaths, "orders/"+orderID+"/responses")
	if err != nil {
		return nil, utils.NewUploadError("failed to upload response files: " + err.Error())
	}

	now := time.Now()
	responses := make([]models.OrderResponse, len(titles))
	for i := range titles {
		responses[i] = models.OrderResponse{Title: titles[i], URL: urls[i], CreatedAt: now}
	}
	return s.Repo.AppendResponses(ctx, orderID, responses)
}

// Complete moves an order to completed, stamping the completion time and
// crediting the writer's slot back.
func (s *DefaultOrderService) Complete(ctx context.Context, orderID string) (*models.Order, error) {
	now := time.Now()
	reason := "work delivered and accepted"
	o, w, err := s.Repo.Complete(ctx, orderID, reason, now)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order completed",
		zap.String("orderId", o.ID),
		zap.String("writerId", o.AssignedWriter),
		zap.Int("slotsLeft", w.SlotsLeft))
	return o, nil
}

// Cancel moves a non-terminal order to cancelled. Owners may cancel their own
// orders; admins may cancel any. A slot held by the order is credited back.
func (s *DefaultOrderService) Cancel(ctx context.Context, orderID, requesterID, role string) (*models.Order, error) {
	existing, err := s.Repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && existing.Owner != requesterID {
		return nil, utils.NewOwnershipError("order does not belong to the requester")
	}

	reason := "cancelled by " + requesterID
	o, w, err := s.Repo.Cancel(ctx, orderID, reason)
	if err != nil {
		return nil, err
	}
	if w != nil {
		utils.GetLogger().Info("order cancelled, slot released",
			zap.String("orderId", o.ID),
			zap.String("writerId", w.ID),
			zap.Int("slotsLeft", w.SlotsLeft))
	}
	return o, nil
}
