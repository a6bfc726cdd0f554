package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"memoriesbot/internal/models"
)

// mapLookupError turns SDK failures for missing or hidden entities into
// ErrUnresolvedReference. Other errors pass through wrapped with the operation.
func mapLookupError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return fmt.Errorf("%s: %w: %w", operation, models.ErrUnresolvedReference, err)
	}
	switch restStatus(err) {
	case http.StatusNotFound, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %w", operation, models.ErrUnresolvedReference, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func mapSendError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, models.ErrDeliveryFailure, err)
}

// isTemporary reports whether a request is worth retrying: rate limits,
// server errors and transport failures that never produced a response.
func isTemporary(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return !errors.Is(err, discordgo.ErrStateNotFound)
	}
	if restErr.Response == nil {
		return true
	}
	code := restErr.Response.StatusCode
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func restStatus(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}
