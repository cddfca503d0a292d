package handler

import (
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	dErrors "github.com/DEMONNN69/knowyourcompany/pkg/domain-errors"
)

const (
	maxNameLength    = 200
	maxWebsiteLength = 500
	maxFieldLength   = 100
)

// CheckCompanyRequest is the HTTP request body for POST /api/v1/companies/check.
type CheckCompanyRequest struct {
	Name     string `json:"name"`
	Website  string `json:"website,omitempty"`
	Country  string `json:"country,omitempty"`
	Category string `json:"category,omitempty"`
}

// Validate trims and checks the request fields.
func (r *CheckCompanyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeBadRequest, "name is too long")
	}

	r.Website = strings.TrimSpace(r.Website)
	if len(r.Website) > maxWebsiteLength {
		return dErrors.New(dErrors.CodeBadRequest, "website is too long")
	}

	r.Country = strings.TrimSpace(r.Country)
	r.Category = strings.TrimSpace(r.Category)
	if len(r.Country) > maxFieldLength {
		return dErrors.New(dErrors.CodeBadRequest, "country is too long")
	}
	if len(r.Category) > maxFieldLength {
		return dErrors.New(dErrors.CodeBadRequest, "category is too long")
	}

	return nil
}

func (r *CheckCompanyRequest) toDomain() company.CheckRequest {
	return company.CheckRequest{
		Name:     r.Name,
		Website:  r.Website,
		Country:  r.Country,
		Category: r.Category,
	}
}
