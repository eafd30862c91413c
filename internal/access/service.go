package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/metrics"
)

type contentReader interface {
	FindByIDWithMedia(ctx context.Context, id uuid.UUID) (*models.Content, error)
}

type purchaseReader interface {
	FindCompletedByUserContent(ctx context.Context, userID, contentID uuid.UUID) (*models.Purchase, error)
}

type membershipReader interface {
	HasActiveMembership(ctx context.Context, organizationID, userID uuid.UUID) (bool, error)
}

// Decision is the verdict for a (consumer, content) pair. When denied,
// Reason carries the client-facing explanation; it never distinguishes
// missing content from unpublished or deleted content.
type Decision struct {
	Allowed bool
	Tier    enums.AccessTier
	Reason  enums.DenialReason
	Content *models.Content
}

// Service evaluates the ordered access gates.
type Service interface {
	CanAccess(ctx context.Context, userID *uuid.UUID, contentID uuid.UUID) (Decision, error)
}

type ServiceParams struct {
	ContentRepo    contentReader
	PurchaseRepo   purchaseReader
	MembershipRepo membershipReader
	Metrics        *metrics.AccessMetrics
	Logger         *logger.Logger
}

type service struct {
	contents    contentReader
	purchases   purchaseReader
	memberships membershipReader
	metrics     *metrics.AccessMetrics
	logg        *logger.Logger
}

// NewService wires the access decision engine with its read models.
func NewService(params ServiceParams) (Service, error) {
	if params.ContentRepo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	if params.PurchaseRepo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.MembershipRepo == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	return &service{
		contents:    params.ContentRepo,
		purchases:   params.PurchaseRepo,
		memberships: params.MembershipRepo,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// CanAccess evaluates the gates in order, short-circuiting on the first
// verdict: availability (published, not deleted, media ready), then free,
// then members-only, then purchased-only. A nil userID is an anonymous
// caller; it can only ever pass the free gate.
func (s *service) CanAccess(ctx context.Context, userID *uuid.UUID, contentID uuid.UUID) (Decision, error) {
	if contentID == uuid.Nil {
		return Decision{}, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}

	content, err := s.contents.FindByIDWithMedia(ctx, contentID)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content")
	}
	if content == nil || content.Status != enums.ContentStatusPublished {
		return s.record(ctx, userID, contentID, Decision{
			Tier:   enums.AccessTierAvailability,
			Reason: enums.DenialReasonNotAvailable,
		}), nil
	}
	if content.MediaItem == nil || !content.MediaItem.IsReady() {
		return s.record(ctx, userID, contentID, Decision{
			Tier:    enums.AccessTierAvailability,
			Reason:  enums.DenialReasonMediaNotReady,
			Content: content,
		}), nil
	}

	if content.IsFree() {
		return s.record(ctx, userID, contentID, Decision{
			Allowed: true,
			Tier:    enums.AccessTierFree,
			Content: content,
		}), nil
	}

	if content.Visibility == enums.ContentVisibilityMembersOnly {
		if userID == nil {
			return s.record(ctx, userID, contentID, Decision{
				Tier:    enums.AccessTierMembersOnly,
				Reason:  enums.DenialReasonAuthRequired,
				Content: content,
			}), nil
		}
		member, err := s.memberships.HasActiveMembership(ctx, content.OrganizationID, *userID)
		if err != nil {
			return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
		}
		decision := Decision{
			Allowed: member,
			Tier:    enums.AccessTierMembersOnly,
			Content: content,
		}
		if !member {
			decision.Reason = enums.DenialReasonMembershipRequired
		}
		return s.record(ctx, userID, contentID, decision), nil
	}

	if userID == nil {
		return s.record(ctx, userID, contentID, Decision{
			Tier:    enums.AccessTierPurchasedOnly,
			Reason:  enums.DenialReasonAuthRequired,
			Content: content,
		}), nil
	}
	purchase, err := s.purchases.FindCompletedByUserContent(ctx, *userID, contentID)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase")
	}
	decision := Decision{
		Allowed: purchase != nil,
		Tier:    enums.AccessTierPurchasedOnly,
		Content: content,
	}
	if purchase == nil {
		decision.Reason = enums.DenialReasonPurchaseRequired
	}
	return s.record(ctx, userID, contentID, decision), nil
}

func (s *service) record(ctx context.Context, userID *uuid.UUID, contentID uuid.UUID, decision Decision) Decision {
	result := "denied"
	if decision.Allowed {
		result = "allowed"
	}
	s.metrics.IncDecision(string(decision.Tier), result)

	if s.logg != nil {
		fields := map[string]any{
			"content_id": contentID.String(),
			"tier":       string(decision.Tier),
			"allowed":    decision.Allowed,
		}
		if userID != nil {
			fields["user_id"] = userID.String()
		}
		if !decision.Allowed {
			fields["reason"] = string(decision.Reason)
		}
		ctx = s.logg.WithFields(ctx, fields)
		s.logg.Info(ctx, "access.decision")
	}
	return decision
}

// DenialError maps a denial to the coded error the HTTP layer renders:
// missing, unpublished, and deleted content all read as not found; unready
// media reads as temporarily unavailable; policy denials read as forbidden.
func DenialError(decision Decision) error {
	switch decision.Reason {
	case enums.DenialReasonNotAvailable:
		return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	case enums.DenialReasonMediaNotReady:
		return pkgerrors.New(pkgerrors.CodeNotReady, "content is still processing")
	case enums.DenialReasonAuthRequired:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	case enums.DenialReasonMembershipRequired:
		return pkgerrors.New(pkgerrors.CodeForbidden, "membership required")
	case enums.DenialReasonPurchaseRequired:
		return pkgerrors.New(pkgerrors.CodeForbidden, "purchase required")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
}
