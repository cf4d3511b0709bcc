package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMarshalCSV_Format(t *testing.T) {
	tests := []struct {
		name string
		rows []SensorRecord
		want string
	}{
		{
			name: "header only",
			rows: nil,
			want: "Model,Status,Base Station Name\n",
		},
		{
			name: "single row",
			rows: []SensorRecord{{Model: "TH-1", Status: "Active", BaseStationName: "North"}},
			want: "Model,Status,Base Station Name\nTH-1,Active,North\n",
		},
		{
			name: "missing station name",
			rows: []SensorRecord{{Model: "TH-2", Status: "Offline"}},
			want: "Model,Status,Base Station Name\nTH-2,Offline,\n",
		},
		{
			name: "special characters are quoted",
			rows: []SensorRecord{{Model: "TH, Mk II", Status: `say "hi"`, BaseStationName: "line\nbreak"}},
			want: "Model,Status,Base Station Name\n\"TH, Mk II\",\"say \"\"hi\"\"\",\"line\nbreak\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCSV(tt.rows)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	rows := []SensorRecord{
		{Model: "TH-1", Status: "Active", BaseStationName: "North"},
		{Model: "TH, Mk II", Status: `quoted "status"`, BaseStationName: "multi\nline"},
		{Model: "Ünïcødé", Status: "Offline", BaseStationName: ""},
	}

	body, err := MarshalCSV(rows)
	require.NoError(t, err)

	decoded, err := DecodeCSV(bytes.NewReader(body))
	require.NoError(t, err)
	require.Len(t, decoded, len(rows))
	for i, r := range rows {
		require.Equal(t, r.Model, decoded[i].Model)
		require.Equal(t, r.Status, decoded[i].Status)
		require.Equal(t, r.BaseStationName, decoded[i].BaseStationName)
	}
}

func TestDecodeCSV(t *testing.T) {
	t.Run("byte order mark and column order", func(t *testing.T) {
		in := "\xEF\xBB\xBFstatus,base station name,model\nActive,North,TH-1\n"
		rows, err := DecodeCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Equal(t, []ImportRow{{Line: 2, Model: "TH-1", Status: "Active", BaseStationName: "North"}}, rows)
	})

	t.Run("station column optional", func(t *testing.T) {
		rows, err := DecodeCSV(strings.NewReader("Model,Status\nTH-1,Active\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Empty(t, rows[0].BaseStationName)
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		rows, err := DecodeCSV(strings.NewReader("Model,Status\nTH-1,Active\n,\nTH-2,Active\n"))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, 4, rows[1].Line)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := DecodeCSV(strings.NewReader(""))
		require.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("missing required column", func(t *testing.T) {
		_, err := DecodeCSV(strings.NewReader("Model,Base Station Name\nTH-1,North\n"))
		require.ErrorContains(t, err, `missing required column "Status"`)
		require.Equal(t, "FILE003", MapError(err).Code)
	})

	t.Run("empty model", func(t *testing.T) {
		_, err := DecodeCSV(strings.NewReader("Model,Status\nTH-1,Active\n ,Active\n"))
		require.ErrorContains(t, err, `line 3: required field "Model" is empty`)
	})

	t.Run("malformed quoting", func(t *testing.T) {
		_, err := DecodeCSV(strings.NewReader("Model,Status\n\"TH-1,Active\n"))
		require.ErrorContains(t, err, "invalid csv")
	})
}

func TestMarshalXLSX(t *testing.T) {
	rows := []SensorRecord{
		{Model: "TH-1", Status: "Active", BaseStationName: "North"},
		{Model: "TH-2", Status: "Offline"},
	}

	body, err := MarshalXLSX(rows)
	require.NoError(t, err)
	require.NotEmpty(t, body)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Sensors")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []string{"Model", "Status", "Base Station Name"}, got[0])
	require.Equal(t, []string{"TH-1", "Active", "North"}, got[1])
	require.Equal(t, []string{"TH-2", "Offline"}, got[2][:2])
}
