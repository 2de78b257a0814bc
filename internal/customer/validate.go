package customer

import (
	"strings"

	"github.com/warimas/backoffice/internal/utils"
)

// Normalize trims every field and drops blank optional ones.
func Normalize(in Input) Input {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PatronymicName = utils.TrimPtr(in.PatronymicName)
	in.Email = utils.TrimPtr(in.Email)
	in.Phone = utils.TrimPtr(in.Phone)
	in.Address = utils.TrimPtr(in.Address)
	in.City = utils.TrimPtr(in.City)
	in.Zip = utils.TrimPtr(in.Zip)
	in.Notes = utils.TrimPtr(in.Notes)
	return in
}

// Validate checks a normalized input against its validate tags.
func Validate(in Input) error {
	return utils.ValidateStruct(in)
}
