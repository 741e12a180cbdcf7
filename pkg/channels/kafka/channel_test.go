package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "single broker", raw: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "several brokers", raw: "kafka-1:9092,kafka-2:9092", want: []string{"kafka-1:9092", "kafka-2:9092"}},
		{name: "whitespace is trimmed", raw: " kafka-1:9092 , kafka-2:9092", want: []string{"kafka-1:9092", "kafka-2:9092"}},
		{name: "empty entries are dropped", raw: "kafka-1:9092,,", want: []string{"kafka-1:9092"}},
		{name: "empty input", raw: "", want: nil},
		{name: "only separators", raw: ", ,", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, ParseBrokers(tc.raw))
		})
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	pub, sub, err := CreateChannel(watermill.NopLogger{}, "agentcanvas")
	require.ErrorIs(t, err, ErrNoBrokers)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}
