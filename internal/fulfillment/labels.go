// Package fulfillment buys shipping labels for paid orders.
package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/shipping"
)

const labelTimeout = 15 * time.Second

type labelClient interface {
	CreateLabel(ctx context.Context, req shipping.LabelRequest) (*shipping.Label, error)
}

type weightSource interface {
	TotalWeightGrams(ctx context.Context, order *models.Order) (int, error)
}

// LabelCreator purchases a label and records tracking on the order.
type LabelCreator struct {
	client  labelClient
	orders  orders.Repository
	weights weightSource
	logg    *logger.Logger
}

func NewLabelCreator(client labelClient, repo orders.Repository, weights weightSource, logg *logger.Logger) (*LabelCreator, error) {
	if client == nil {
		return nil, errors.New("shipping client required")
	}
	if repo == nil {
		return nil, errors.New("orders repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &LabelCreator{client: client, orders: repo, weights: weights, logg: logg}, nil
}

// CreateForOrder is best effort: failures are logged and the order keeps
// its unfulfilled status for a manual retry.
func (c *LabelCreator) CreateForOrder(ctx context.Context, order *models.Order) {
	if c == nil || order == nil {
		return
	}
	if order.FulfillmentStatus != enums.FulfillmentStatusUnfulfilled {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), labelTimeout)
	defer cancel()
	ctx = c.logg.WithOrderID(ctx, order.ID.String())

	req := shipping.LabelRequest{
		OrderNumber: order.OrderNumber,
		Recipient:   order.CustomerName,
		Address:     order.ShippingAddress,
	}
	if order.ShippingOptionID != nil {
		req.OptionID = *order.ShippingOptionID
	}
	if c.weights != nil {
		weight, err := c.weights.TotalWeightGrams(ctx, order)
		if err != nil {
			c.logg.Warn(ctx, "order weight unavailable for label")
		}
		req.WeightGrams = weight
	}

	label, err := c.client.CreateLabel(ctx, req)
	if err != nil {
		c.logg.Error(ctx, "shipping label purchase failed", err)
		return
	}
	err = c.orders.SetFulfillment(ctx, order.ID, orders.FulfillmentUpdate{
		Status:         enums.FulfillmentStatusLabelCreated,
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
	})
	if err != nil {
		c.logg.Error(ctx, "shipping label not recorded", err)
		return
	}
	c.logg.Info(c.logg.WithField(ctx, "tracking_number", label.TrackingNumber), "shipping label created")
}
