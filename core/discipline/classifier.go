package discipline

import (
	"context"

	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

// Classifier maps a free-text violation name to a severity category.
// Lookup failures never surface: intake must not be blocked by an
// unrecognized or misspelled violation name, so the configured default
// category is returned instead.
type Classifier struct {
	roster          store.RosterStore
	defaultCategory string
	logger          *utils.Logger
}

func NewClassifier(roster store.RosterStore, defaultCategory string, logger *utils.Logger) *Classifier {
	if defaultCategory == "" {
		defaultCategory = "Incident Report"
	}
	return &Classifier{roster: roster, defaultCategory: defaultCategory, logger: logger}
}

func (c *Classifier) Classify(ctx context.Context, violation string) string {
	category, ok, err := c.roster.FindViolationCategory(ctx, violation)
	if err != nil {
		c.logger.Errorf("classify %q: %v", violation, err)
		return c.defaultCategory
	}
	if !ok {
		return c.defaultCategory
	}
	return category
}

func (c *Classifier) DefaultCategory() string {
	return c.defaultCategory
}
