package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/audit"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/rules"
	"github.com/ostiary/ostiary-core/internal/schedule"
)

// decodeJSON decodes the request body into v, writing a 400 response on
// failure. Returns false if the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// notFoundSentinels are the repository errors that translate to 404.
var notFoundSentinels = []error{
	directory.ErrPersonnelNotFound,
	directory.ErrCredentialNotFound,
	directory.ErrAreaNotFound,
	schedule.ErrScheduleNotFound,
	schedule.ErrItemNotFound,
	schedule.ErrHolidayNotFound,
	accesspoint.ErrPointNotFound,
	accesspoint.ErrConfigNotFound,
	accesspoint.ErrThresholdNotFound,
	accesspoint.ErrAuthRuleNotFound,
	rules.ErrGroupNotFound,
	rules.ErrRuleNotFound,
	rules.ErrGrantNotFound,
	rules.ErrInterlockNotFound,
	audit.ErrEventNotFound,
}

// isNotFound reports whether err is any repository not-found sentinel.
func isNotFound(err error) bool {
	for _, sentinel := range notFoundSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// writeRepoError maps a repository error to the appropriate HTTP response.
func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case isNotFound(err):
		writeNotFound(w, err.Error())
	case errors.Is(err, directory.ErrDuplicateCredential),
		errors.Is(err, rules.ErrPointInterlocked):
		writeConflict(w, err.Error())
	case errors.Is(err, directory.ErrInvalidName),
		errors.Is(err, directory.ErrInvalidLevel),
		errors.Is(err, directory.ErrInvalidFactorKind),
		errors.Is(err, directory.ErrInvalidStatus),
		errors.Is(err, schedule.ErrInvalidDay),
		errors.Is(err, schedule.ErrInvalidWindow),
		errors.Is(err, schedule.ErrInvalidTier),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, accesspoint.ErrInvalidAuthMode),
		errors.Is(err, accesspoint.ErrInvalidDirection),
		errors.Is(err, accesspoint.ErrInvalidName),
		errors.Is(err, rules.ErrInvalidItem),
		errors.Is(err, rules.ErrInvalidName):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		writeInternalError(w, "storage error")
	}
}
