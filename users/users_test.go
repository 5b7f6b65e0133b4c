package users_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renatrack/renatrack-client/internal/utils"
	"github.com/renatrack/renatrack-client/users"
)

func TestProfile_Merged_AppliesOnlyPatchedFields(t *testing.T) {
	base := users.Profile{
		FullName:    "Jane Doe",
		Timezone:    "Europe/London",
		Units:       "metric",
		DryWeightKg: 70,
		ClinicName:  "Riverside Renal Unit",
	}

	merged := base.Merged(users.ProfilePatch{
		DryWeightKg:      utils.Ptr(72.5),
		NephrologistName: utils.Ptr("Dr. Okafor"),
	})

	require.Equal(t, 72.5, merged.DryWeightKg)
	require.Equal(t, "Dr. Okafor", merged.NephrologistName)
	require.Equal(t, "Jane Doe", merged.FullName)
	require.Equal(t, "Europe/London", merged.Timezone)
	require.Equal(t, "metric", merged.Units)
	require.Equal(t, "Riverside Renal Unit", merged.ClinicName)
}

func TestProfile_Merged_EmptyPatchIsIdentity(t *testing.T) {
	base := users.Profile{FullName: "Jane Doe", Units: "imperial", HeightCm: 168}
	require.Equal(t, base, base.Merged(users.ProfilePatch{}))
}

func TestProfile_Merged_ExplicitZeroValuesStick(t *testing.T) {
	base := users.Profile{FullName: "Jane Doe", DryWeightKg: 70}

	merged := base.Merged(users.ProfilePatch{
		FullName:    utils.Ptr(""),
		DryWeightKg: utils.Ptr(0.0),
	})

	require.Empty(t, merged.FullName, "a pointer to the zero value clears the field")
	require.Zero(t, merged.DryWeightKg)
}

func TestProfile_Merged_DoesNotMutateReceiver(t *testing.T) {
	base := users.Profile{FullName: "Jane Doe"}
	_ = base.Merged(users.ProfilePatch{FullName: utils.Ptr("Changed")})
	require.Equal(t, "Jane Doe", base.FullName)
}

func TestProfile_Merged_DialysisStartDate(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	merged := users.Profile{}.Merged(users.ProfilePatch{DialysisStartDate: &start})
	require.NotNil(t, merged.DialysisStartDate)
	require.True(t, merged.DialysisStartDate.Equal(start))
}
