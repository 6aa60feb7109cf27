package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FillDefaults(t *testing.T) {
	s := Settings{}.FillDefaults()

	assert.Equal(t, BindingNone, s.DefaultBindingType)
	assert.NotNil(t, s.DefaultIncludePaths)
	assert.NotNil(t, s.ZephyrBindings)
	assert.NotNil(t, s.DeviceOrgTreeBindings)
	assert.NotNil(t, s.DeviceOrgBindingsMetaSchema)
}

func Test_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{name: "defaults ok", s: Settings{}.FillDefaults(), wantErr: false},
		{name: "unknown binding type", s: Settings{DefaultBindingType: "bogus"}.FillDefaults(), wantErr: true},
		{
			name:    "zephyr with no roots",
			s:       Settings{DefaultBindingType: BindingZephyr}.FillDefaults(),
			wantErr: true,
		},
		{
			name: "zephyr with roots",
			s: Settings{DefaultBindingType: BindingZephyr,
				ZephyrBindings: []string{"/zephyr/dts/bindings"}}.FillDefaults(),
			wantErr: false,
		},
		{
			name:    "devicetree-org with no roots",
			s:       Settings{DefaultBindingType: BindingDeviceOrg}.FillDefaults(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
