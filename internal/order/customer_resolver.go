package order

import (
	"context"
	"fmt"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/customer"
)

// CustomerWriter is the part of the customer store the resolver touches.
type CustomerWriter interface {
	Create(ctx context.Context, teamID int64, in customer.Input) (*customer.Customer, error)
	FindByID(ctx context.Context, teamID, id int64) (*customer.Customer, error)
	UpdateContact(ctx context.Context, teamID, id int64, c customer.Contact) (*customer.Customer, error)
}

// ResolveCustomer decides which customer the order belongs to, creating or
// updating one when the form asks for it.
func ResolveCustomer(
	ctx context.Context,
	customers CustomerWriter,
	recorder audit.Repository,
	teamID int64,
	in Input,
) (int64, error) {
	action := in.CustomerAction
	if action == CustomerUpdate && (in.CustomerID == nil || *in.CustomerID == 0) {
		return 0, apperr.Invalid("customer_action update requires customer_id")
	}
	if in.CustomerID == nil {
		action = CustomerCreate
	}

	switch action {
	case "", CustomerKeep:
		c, err := customers.FindByID(ctx, teamID, *in.CustomerID)
		if err != nil {
			return 0, err
		}
		return c.ID, nil

	case CustomerCreate:
		ct, err := contactOf(in)
		if err != nil {
			return 0, err
		}
		c, err := customers.Create(ctx, teamID, ct.Input())
		if err != nil {
			return 0, err
		}
		if err := recorder.Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCustomer, ID: c.ID}, audit.EventCreated, nil, c); err != nil {
			return 0, err
		}
		return c.ID, nil

	case CustomerUpdate:
		ct, err := contactOf(in)
		if err != nil {
			return 0, err
		}
		before, err := customers.FindByID(ctx, teamID, *in.CustomerID)
		if err != nil {
			return 0, err
		}
		after, err := customers.UpdateContact(ctx, teamID, *in.CustomerID, ct)
		if err != nil {
			return 0, err
		}
		if err := recorder.Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCustomer, ID: after.ID}, audit.EventUpdated, before, after); err != nil {
			return 0, err
		}
		return after.ID, nil

	default:
		return 0, apperr.Invalid(fmt.Sprintf("unknown customer_action %q", action))
	}
}

// contactOf validates the inline customer fields with the customer rules.
func contactOf(in Input) (customer.Contact, error) {
	ci := customer.Normalize(customer.Contact{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Address:   in.Address,
	}.Input())
	if err := customer.Validate(ci); err != nil {
		return customer.Contact{}, err
	}
	return customer.Contact{
		FirstName: ci.FirstName,
		LastName:  ci.LastName,
		Phone:     ci.Phone,
		Address:   ci.Address,
	}, nil
}
