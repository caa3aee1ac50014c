package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
	"github.com/shandysiswandi/otpbite/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestRun(t *testing.T) {
	clk := clock.NewFixed(time.Unix(1111111109, 0))

	tests := []struct {
		name    string
		args    []string
		environ map[string]string
		want    string
	}{
		{
			name: "flag secret",
			args: []string{"-secret", rfcSecret},
			want: "081804\t1s remaining\n",
		},
		{
			name:    "env secret",
			environ: map[string]string{"OTP_SECRET": rfcSecret},
			want:    "081804\t1s remaining\n",
		},
		{
			name:    "flag overrides env",
			args:    []string{"-digits", "8"},
			environ: map[string]string{"OTP_SECRET": rfcSecret, "OTP_DIGITS": "6"},
			want:    "07081804\t1s remaining\n",
		},
		{
			name: "explicit time",
			args: []string{"-secret", rfcSecret, "-at", "1111111111"},
			want: "050471\t29s remaining\n",
		},
		{
			name: "unix epoch",
			args: []string{"-secret", rfcSecret, "-at", "0"},
			want: "755224\t30s remaining\n",
		},
		{
			name:    "env time",
			environ: map[string]string{"OTP_SECRET": rfcSecret, "OTP_AT": "59", "OTP_DIGITS": "8"},
			want:    "94287082\t1s remaining\n",
		},
		{
			name: "secret is normalized",
			args: []string{"-secret", "gezd gnbv gy3t qojq gezd gnbv gy3t qojq"},
			want: "081804\t1s remaining\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			err := run(tt.args, tt.environ, &out, clk)

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRun_Errors(t *testing.T) {
	clk := clock.NewFixed(time.Unix(1111111109, 0))

	tests := []struct {
		name string
		args []string
		is   error
		msg  string
	}{
		{name: "missing secret", args: nil, is: errMissingSecret},
		{name: "invalid encoding", args: []string{"-secret", "GEZDGNB1"}, is: base32.ErrInvalidSecretEncoding},
		{name: "zero period", args: []string{"-secret", rfcSecret, "-period", "0"}, msg: "period"},
		{name: "too many digits", args: []string{"-secret", rfcSecret, "-digits", "11"}, msg: "digits"},
		{name: "unknown flag", args: []string{"-nope"}, msg: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			err := run(tt.args, nil, &out, clk)

			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.Contains(t, err.Error(), tt.msg)
			assert.Empty(t, out.String())
		})
	}
}
