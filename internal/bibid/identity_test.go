package bibid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Stuckey, Maggie & McGee, Rose Marie Nichols [Stuckey, Maggie]", []string{"Stuckey, Maggie", "McGee, Rose Marie Nichols"}},
		{"Cialdini, Robert B. [Cialdini, Robert B.]", []string{"Cialdini, Robert B."}},
		{"Robert B. Cialdini", []string{"Cialdini, Robert B."}},
		{"Cialdini", []string{"Cialdini"}},
		{"Chip Heath and Dan Heath", []string{"Heath, Chip", "Heath, Dan"}},
		{"  ", nil},
		{"[Sort, Key]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAuthors(tt.input))
		})
	}
}

func TestIdentity_Validate(t *testing.T) {
	assert.NoError(t, Identity{Title: "Influence", Authors: []string{"Cialdini, Robert B."}}.Validate())

	err := Identity{Title: "Influence"}.Validate()
	assert.ErrorIs(t, err, ErrIdentityIncomplete)
	assert.Contains(t, err.Error(), "author")

	err = Identity{}.Validate()
	assert.ErrorIs(t, err, ErrIdentityIncomplete)
	assert.Contains(t, err.Error(), "title, author")
}

func TestBibTeX(t *testing.T) {
	entry, id := Default().BibTeX(Identity{
		Title:   "Influence",
		Authors: []string{"Cialdini, Robert B."},
		Year:    2006,
		Extra:   map[string]string{"isbn": "9780061241895", "language": "eng"},
	})

	assert.Equal(t, "cialdini-2006---influence", id)
	assert.Equal(t, "@book {cialdini-2006---influence,\n"+
		"  title = {Influence},\n"+
		"  author = {Cialdini, Robert B.},\n"+
		"  year = {2006},\n"+
		"  isbn = {9780061241895}\n"+
		"}", entry)
}

func TestBibTeX_UnknownYear(t *testing.T) {
	entry, id := Default().BibTeX(Identity{
		Title:   "Switch",
		Authors: []string{"Heath, Chip", "Heath, Dan"},
	})
	assert.Equal(t, "heath---switch", id)
	assert.Contains(t, entry, "author = {Heath, Chip and Heath, Dan}")
	assert.Contains(t, entry, "year = {}")
}
