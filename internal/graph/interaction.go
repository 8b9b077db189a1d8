// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/affinigraph/internal/validation"
)

// ErrInvalidInteraction marks a record that was dropped from a batch.
var ErrInvalidInteraction = errors.New("invalid interaction")

// Interaction is one user's rating of one item.
type Interaction struct {
	UserID    string  `json:"user_id" validate:"required,identifier"`
	ItemID    int64   `json:"item_id" validate:"required"`
	Rating    float64 `json:"rating"`
	Timestamp int64   `json:"timestamp"`
}

// Validate returns an *InvalidInteractionError if the record lacks a user or
// item id.
func (in *Interaction) Validate() error {
	if ierr := in.check(); ierr != nil {
		return ierr
	}
	return nil
}

func (in *Interaction) check() *InvalidInteractionError {
	if verr := validation.ValidateStruct(in); verr != nil {
		return &InvalidInteractionError{Record: *in, Reason: verr.Error()}
	}
	return nil
}

// InvalidInteractionError reports a rejected record and its position in the
// submitted batch.
type InvalidInteractionError struct {
	Index  int
	Record Interaction
	Reason string
}

func (e *InvalidInteractionError) Error() string {
	return fmt.Sprintf("interaction %d: %s", e.Index, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInteraction.
func (e *InvalidInteractionError) Unwrap() error {
	return ErrInvalidInteraction
}

// ErrInvalidCatalogEntry marks a user or item registration that failed
// validation.
var ErrInvalidCatalogEntry = errors.New("invalid catalog entry")

// User is a registered user. A registered user is a node of the graph even
// before it has any interactions.
type User struct {
	UserID string `json:"user_id" validate:"required,identifier"`
}

// Validate checks the user id.
func (u *User) Validate() error {
	if verr := validation.ValidateStruct(u); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCatalogEntry, verr.Error())
	}
	return nil
}

// Item is catalog metadata for one item. Items do not need to be registered
// before they are rated.
type Item struct {
	ItemID        int64  `json:"item_id" validate:"required"`
	Title         string `json:"title" validate:"required,max=512"`
	Poster        string `json:"poster,omitempty" validate:"omitempty,url"`
	DatePublished string `json:"date_published,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Homepage      string `json:"homepage,omitempty" validate:"omitempty,url"`
}

// Validate checks the item id and metadata.
func (it *Item) Validate() error {
	if verr := validation.ValidateStruct(it); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCatalogEntry, verr.Error())
	}
	return nil
}

// ItemSet is a deduplicated set of item ids.
type ItemSet map[int64]struct{}

// Has reports whether item is in the set.
func (s ItemSet) Has(item int64) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the items in ascending order.
func (s ItemSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// History maps a user id to the items that user interacted with.
type History map[string]ItemSet

// Items returns the user's items, or nil for an unknown user.
func (h History) Items(userID string) ItemSet {
	return h[userID]
}
