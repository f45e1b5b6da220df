package recommending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"go.uber.org/mock/gomock"
)

const seedFile = "../../../playbooks/default.yaml"

func TestLoadPlaybooks_DefaultFile(t *testing.T) {
	playbooks, err := LoadPlaybooks(seedFile)
	require.NoError(t, err)
	require.NotEmpty(t, playbooks)

	first := playbooks[0]
	assert.Equal(t, "high-cpa-pause", first.ID)
	assert.Equal(t, []domain.Provider{domain.ProviderMeta, domain.ProviderGoogle}, first.Providers)
	assert.Equal(t, domain.AggregateAvg7, first.Conditions[0].Aggregate)
	assert.Equal(t, domain.ActionPause, first.Actions[0].Type)
	assert.True(t, first.Enabled)
}

func TestParsePlaybooks_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing id": `
playbooks:
  - name: x
    conditions: [{metric: spend, operator: ">", value: 1}]
    actions: [{type: pause}]
`,
		"unknown metric": `
playbooks:
  - id: a
    conditions: [{metric: roas, operator: ">", value: 1}]
    actions: [{type: pause}]
`,
		"unknown operator": `
playbooks:
  - id: a
    conditions: [{metric: spend, operator: "=>", value: 1}]
    actions: [{type: pause}]
`,
		"unknown action": `
playbooks:
  - id: a
    conditions: [{metric: spend, operator: ">", value: 1}]
    actions: [{type: delete}]
`,
		"duplicated id": `
playbooks:
  - id: a
    conditions: [{metric: spend, operator: ">", value: 1}]
    actions: [{type: pause}]
  - id: a
    conditions: [{metric: spend, operator: ">", value: 1}]
    actions: [{type: pause}]
`,
		"no conditions": `
playbooks:
  - id: a
    actions: [{type: pause}]
`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlaybooks([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestSeedPlaybooks(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPlaybookRepository(ctrl)

	playbooks, err := LoadPlaybooks(seedFile)
	require.NoError(t, err)
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(len(playbooks))

	n, err := SeedPlaybooks(context.Background(), repo, seedFile)
	require.NoError(t, err)
	assert.Equal(t, len(playbooks), n)
}
