package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/store"
)

type CreateClaimRequest struct {
	FoundID string `json:"found_id"`
}

type VerifyClaimRequest struct {
	Decision string `json:"decision"` // "verified" or "rejected"
}

type Claim struct {
	ID          string `json:"id"`
	FoundID     string `json:"found_id"`
	ClaimantID  string `json:"claimant_id"`
	Status      string `json:"status"`
	HoldCode    string `json:"hold_code,omitempty"`
	VerifierID  string `json:"verifier_id,omitempty"`
	RequestedTs int64  `json:"requested_ts"`
	VerifiedTs  int64  `json:"verified_ts,omitempty"`
}

// CreateClaim opens a claim on an available found item. A losing racer
// gets 409 with the item's current status.
func (s *APIV1Service) CreateClaim(c echo.Context) error {
	request := &CreateClaimRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.FoundID == "" {
		return errorResponse(c, errs.Validationf("found_id", "required"))
	}

	claim, err := s.Machine.Request(c.Request().Context(), request.FoundID, currentUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, convertClaim(claim, true))
}

// VerifyClaim applies the office decision: verified moves the claim
// forward, rejected returns the item to circulation.
func (s *APIV1Service) VerifyClaim(c echo.Context) error {
	ctx := c.Request().Context()
	request := &VerifyClaimRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	var claim *store.Claim
	var err error
	switch request.Decision {
	case store.ClaimStatusVerified:
		claim, err = s.Machine.Verify(ctx, c.Param("id"), currentUserID(c))
	case store.ClaimStatusRejected:
		claim, err = s.Machine.Reject(ctx, c.Param("id"))
	default:
		return errorResponse(c, errs.Validationf("decision", "must be %q or %q", store.ClaimStatusVerified, store.ClaimStatusRejected))
	}
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, convertClaim(claim, true))
}

// ConfirmPickup completes a verified claim at the counter.
func (s *APIV1Service) ConfirmPickup(c echo.Context) error {
	claim, err := s.Machine.ConfirmPickup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, convertClaim(claim, true))
}

func (s *APIV1Service) ListClaims(c echo.Context) error {
	find := &store.FindClaim{}
	if status := c.QueryParam("status"); status != "" {
		find.Status = &status
	}

	claims, err := s.Store.ListClaims(c.Request().Context(), find)
	if err != nil {
		return errorResponse(c, err)
	}

	// Hold codes are only revealed to office staff; students see their
	// own code in the create response.
	role, _ := c.Get(roleContextKey).(string)
	withCode := role == store.RoleOffice || role == store.RoleAdmin

	response := make([]*Claim, 0, len(claims))
	for _, claim := range claims {
		response = append(response, convertClaim(claim, withCode))
	}
	return c.JSON(http.StatusOK, response)
}

func convertClaim(claim *store.Claim, withHoldCode bool) *Claim {
	response := &Claim{
		ID:          claim.ID,
		FoundID:     claim.FoundID,
		ClaimantID:  claim.ClaimantID,
		Status:      claim.Status,
		VerifierID:  claim.VerifierID,
		RequestedTs: claim.RequestedTs,
		VerifiedTs:  claim.VerifiedTs,
	}
	if withHoldCode {
		response.HoldCode = claim.HoldCode
	}
	return response
}
