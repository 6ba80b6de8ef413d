package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
)

func TestPageRequest_DefaultPage(t *testing.T) {
	cases := []struct {
		name string
		in   dto.PageRequest
		want dto.PageRequest
	}{
		{"vacío usa el límite por defecto", dto.PageRequest{}, dto.PageRequest{Limit: 20}},
		{"negativos", dto.PageRequest{Limit: -5, Offset: -1}, dto.PageRequest{Limit: 20}},
		{"recorta al máximo", dto.PageRequest{Limit: 500, Offset: 40}, dto.PageRequest{Limit: 100, Offset: 40}},
		{"respeta valores válidos", dto.PageRequest{Limit: 7, Offset: 3}, dto.PageRequest{Limit: 7, Offset: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.in
			p.DefaultPage()
			assert.Equal(t, tc.want, p)
		})
	}

	assert.Equal(t, dto.PageResponse{Limit: 7, Offset: 3, Count: 2}, dto.PageRequest{Limit: 7, Offset: 3}.Response(2))
}
