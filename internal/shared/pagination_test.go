package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name                  string
		page, perPage, total  int
		wantPage, wantPerPage int
		wantPages             int
	}{
		{name: "exact", page: 1, perPage: 10, total: 20, wantPage: 1, wantPerPage: 10, wantPages: 2},
		{name: "remainder", page: 2, perPage: 2, total: 3, wantPage: 2, wantPerPage: 2, wantPages: 2},
		{name: "empty", page: 1, perPage: 10, total: 0, wantPage: 1, wantPerPage: 10, wantPages: 0},
		{name: "defaults", page: 0, perPage: 0, total: 11, wantPage: 1, wantPerPage: 10, wantPages: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.perPage, tc.total)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantPerPage, p.PerPage)
			assert.Equal(t, tc.wantPages, p.TotalPages)
		})
	}
}
