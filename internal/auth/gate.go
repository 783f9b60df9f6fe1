package auth

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// Gate decides whether a request may proceed. Checks run in two phases: CheckRequest
// before the target object is loaded (capability only, plus the payload vendor for
// creates) and CheckObject once it is known (vendor scope for edits and deletes).
// The gate holds no state between requests.
type Gate struct{}

// NewGate returns a gate.
func NewGate() *Gate {
	return &Gate{}
}

// IsSafeMethod reports whether method is read-only.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CheckRequest is the list-level check. vendor is the payload's vendor field for
// POST requests and nil when the payload names none.
func (g *Gate) CheckRequest(method string, ac *AuthContext, vendor any) error {
	if IsSafeMethod(method) {
		return nil
	}
	if ac == nil || ac.Claims == nil {
		return apperrors.NewUnauthorized("a valid credential is required for write, edit and delete operations")
	}

	switch method {
	case http.MethodPost:
		if !ac.Claims.CanWrite {
			return apperrors.NewForbidden("this token does not have create (POST) permissions")
		}
		// Creates that name no vendor are not scoped here.
		if vendor == nil {
			return nil
		}
		vendorID, ok := parseVendorID(vendor)
		if !ok {
			return apperrors.NewForbidden("invalid vendor ID")
		}
		if !ac.Token.AllowsVendor(vendorID) {
			return apperrors.NewForbidden("you may not create objects for that vendor")
		}
		return nil
	case http.MethodPut, http.MethodPatch:
		if !ac.Claims.CanEdit {
			return apperrors.NewForbidden("this token does not have edit (PUT/PATCH) permissions")
		}
		return nil
	case http.MethodDelete:
		if !ac.Claims.CanDelete {
			return apperrors.NewForbidden("this token does not have delete (DELETE) permissions")
		}
		return nil
	}

	return apperrors.NewForbidden("method " + method + " not allowed")
}

// CheckObject is the object-level check, run after the target has been loaded.
// objectVendor is nil when the object carries no vendor.
func (g *Gate) CheckObject(method string, ac *AuthContext, objectVendor *int64) error {
	if IsSafeMethod(method) {
		return nil
	}
	if ac == nil || ac.Claims == nil {
		return apperrors.NewUnauthorized("a valid credential is required for write, edit and delete operations")
	}

	switch method {
	case http.MethodPut, http.MethodPatch:
		if !ac.Claims.CanEdit {
			return apperrors.NewForbidden("this token does not have edit permissions")
		}
		if objectVendor != nil && !ac.Token.AllowsVendor(*objectVendor) {
			return apperrors.NewForbidden("you may not edit objects for that vendor")
		}
	case http.MethodDelete:
		if !ac.Claims.CanDelete {
			return apperrors.NewForbidden("this token does not have delete permissions")
		}
		if objectVendor != nil && !ac.Token.AllowsVendor(*objectVendor) {
			return apperrors.NewForbidden("you may not delete objects for that vendor")
		}
	}
	return nil
}

// parseVendorID accepts integers, integral JSON numbers and numeric strings.
func parseVendorID(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		id, err := val.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return id, err == nil
	}
	return 0, false
}
