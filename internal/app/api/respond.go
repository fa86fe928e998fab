package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

// statusFor maps the error taxonomy onto HTTP statuses. Every kind has
// exactly one status so clients can branch on either.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func fail(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(statusFor(de.Kind), domain.ErrorResponse{
			Kind: string(de.Kind), Entity: de.Entity, ID: de.ID, Msg: de.Msg,
		})
		return
	}
	c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{
		Kind: string(domain.KindUnavailable), Msg: "temporarily unavailable",
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, domain.ErrorResponse{Kind: string(domain.KindValidation), Msg: msg})
}

func sessionResponse(s domain.OrderSession) domain.SessionResponse {
	resp := domain.SessionResponse{
		ID:       s.ID,
		Number:   s.Number,
		TableID:  s.TableID,
		Status:   string(s.Status),
		Subtotal: s.Subtotal.String(),
		Discount: s.Discount.String(),
		Tax:      s.Tax.String(),
		Total:    s.Total.String(),
	}
	if s.ClosedAt != nil {
		ts := s.ClosedAt.UTC().Format(time.RFC3339)
		resp.ClosedAt = &ts
	}
	return resp
}

func draftResponse(d domain.CurrentOrder) domain.DraftResponse {
	resp := domain.DraftResponse{
		ID:       d.ID,
		IsOnHold: d.IsOnHold,
		Subtotal: d.Subtotal.String(),
		Discount: d.Discount.String(),
		Tax:      d.Tax.String(),
		Total:    d.Total.String(),
		Items:    []domain.DraftItemResponse{},
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, domain.DraftItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity.String(),
			UnitPrice: it.UnitPrice.String(),
			Total:     it.Total.String(),
		})
	}
	return resp
}

func orderResponse(o domain.Order) domain.OrderResponse {
	return domain.OrderResponse{
		ID:       o.ID,
		Number:   o.Number,
		Status:   string(o.Status),
		Subtotal: o.Subtotal.String(),
		Total:    o.Total.String(),
		Items:    len(o.Items),
	}
}
