package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isectech/ctf-datagen/domain/entity"
)

func flows() Rows {
	mk := func(ts, src string, port int, status string) *entity.Record {
		return entity.NewRecord(4).
			Set("TimeGenerated", ts).
			Set("SrcIP_s", src).
			Set("DestPort_d", port).
			Set("FlowStatus_s", status)
	}
	return Rows{
		mk("2024-01-15T10:00:00Z", "10.0.1.50", 443, "A"),
		mk("2024-01-15T10:01:00Z", "192.168.100.50", 22, "D"),
		mk("2024-01-15T10:02:00Z", "192.168.100.50", 23, "D"),
		mk("2024-01-15T02:15:00Z", "192.168.100.50", 22, "D"),
		mk("2024-01-15T10:03:00Z", "10.0.1.50", 443, "A"),
	}
}

func TestWhereAndCount(t *testing.T) {
	rows := flows()
	assert.Equal(t, 3, rows.Where(Equals("FlowStatus_s", "D")).Count())
	assert.Equal(t, 2, rows.Where(Equals("FlowStatus_s", "D"), Equals("DestPort_d", 22)).Count())
	assert.Equal(t, 2, rows.Where(NotEquals("FlowStatus_s", "D")).Count())
	assert.Equal(t, 5, rows.Where(Or(Equals("FlowStatus_s", "A"), In("SrcIP_s", "192.168.100.50"))).Count())
	assert.Equal(t, 1, rows.Where(HourBetween("TimeGenerated", 0, 4)).Count())
}

func TestDistinctAndGrouping(t *testing.T) {
	rows := flows()
	assert.Equal(t, []string{"10.0.1.50", "192.168.100.50"}, rows.Distinct("SrcIP_s"))
	assert.Equal(t, map[string]int{"10.0.1.50": 2, "192.168.100.50": 3}, rows.CountBy("SrcIP_s"))

	top := Top(rows.DistinctCountBy("SrcIP_s", "DestPort_d"))
	assert.Equal(t, []Group{{Key: "192.168.100.50", Count: 2}, {Key: "10.0.1.50", Count: 1}}, top)
}

func TestSortByDesc(t *testing.T) {
	sorted := flows().SortByDesc("TimeGenerated")
	assert.Equal(t, "2024-01-15T10:03:00Z", sorted[0].String("TimeGenerated"))
	assert.Equal(t, "2024-01-15T02:15:00Z", sorted[len(sorted)-1].String("TimeGenerated"))
}

func TestStringPredicates(t *testing.T) {
	r := entity.NewRecord(1).Set("AlertName", "CREDENTIAL ACCESS detected")
	assert.False(t, Contains("AlertName", "credential")(r))
	assert.True(t, ContainsFold("AlertName", "credential")(r))
	assert.False(t, ContainsFold("Missing", "credential")(r))
}
