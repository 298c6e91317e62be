package orchestrator

import (
	"context"
	"fmt"

	"kazi_backend/internal/domain"
	reviewsvc "kazi_backend/internal/reviews/service"
	"kazi_backend/internal/sideeffect"

	"github.com/google/uuid"
)

const opSubmitReview = "submit_review"

// ReviewParams is a client's review of a completed job. ProviderID is
// optional; when set it must be the provider the job was assigned to.
type ReviewParams struct {
	JobID      uuid.UUID
	ClientID   uuid.UUID
	ProviderID uuid.UUID
	Ratings    domain.SubRatings
	Comment    string
}

// SubmitReview records the client's review of a completed job, folds it into
// the provider's aggregate and tells the provider.
func (o *Orchestrator) SubmitReview(ctx context.Context, p ReviewParams) (reviewsvc.Result, error) {
	var job domain.Job
	res, err := retry(ctx, o, opSubmitReview, func(ctx context.Context) (reviewsvc.Result, error) {
		var err error
		job, err = o.ownedJob(ctx, p.JobID, p.ClientID, opSubmitReview)
		if err != nil {
			return reviewsvc.Result{}, err
		}
		if job.Status != domain.JobCompleted || job.AssignedProviderID == nil {
			return reviewsvc.Result{}, domain.ErrJobNotReviewable.WithOp(opSubmitReview)
		}
		providerID := *job.AssignedProviderID
		if p.ProviderID != uuid.Nil && p.ProviderID != providerID {
			return reviewsvc.Result{}, domain.ValidationError("providerId", "provider was not assigned to this job").WithOp(opSubmitReview)
		}
		return o.reviews.Submit(ctx, domain.NewReviewParams{
			JobID:      job.ID,
			ProviderID: providerID,
			ClientID:   p.ClientID,
			Ratings:    p.Ratings,
			Comment:    p.Comment,
		})
	})
	if err != nil {
		return reviewsvc.Result{}, err
	}

	review := res.Review
	o.effects.Notify(ctx, sideeffect.Notification{
		UserID:          review.ProviderID,
		Type:            sideeffect.TypeReviewReceived,
		Message:         fmt.Sprintf("You received a %.1f star review for %q", review.Rating, job.Title),
		RelatedEntityID: review.ID,
		Link:            o.link("/providers/" + review.ProviderID.String() + "/reviews"),
	})
	o.emailProvider(ctx, review.ProviderID, func(profile domain.ProviderProfile) sideeffect.EmailMessage {
		return sideeffect.EmailMessage{
			Template:     sideeffect.TemplateReviewReceived,
			To:           profile.Email,
			ProviderName: profile.DisplayName,
			JobTitle:     job.Title,
			Rating:       review.Rating,
			Comment:      review.Comment,
		}
	})
	return res, nil
}
