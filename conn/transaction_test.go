package conn

import "testing"

func TestTxOptions_BeginSQL(t *testing.T) {
	tests := []struct {
		name string
		opts TxOptions
		want string
	}{
		{"zero value", TxOptions{}, "BEGIN READ WRITE NOT DEFERRABLE"},
		{"serializable read-only deferrable", TxOptions{Isolation: Serializable, ReadOnly: true, Deferrable: true},
			"BEGIN ISOLATION LEVEL SERIALIZABLE READ ONLY DEFERRABLE"},
		{"repeatable read, read-write", TxOptions{Isolation: RepeatableRead},
			"BEGIN ISOLATION LEVEL REPEATABLE READ READ WRITE NOT DEFERRABLE"},
	}
	for _, tt := range tests {
		if got := tt.opts.beginSQL(); got != tt.want {
			t.Fatalf("%s: beginSQL() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
