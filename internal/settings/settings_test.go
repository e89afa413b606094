package settings

import "testing"

func TestCurrentDefaultsBeforeAnyLoad(t *testing.T) {
	got := Current()
	if got != Defaults {
		t.Errorf("Current() = %+v, want Defaults %+v", got, Defaults)
	}
}

func TestPublishUpdatesCurrent(t *testing.T) {
	defer publish(Defaults)

	publish(Settings{RecenterOnStartup: false, AllowOculusRuntime: true})
	got := Current()
	if got.RecenterOnStartup || !got.AllowOculusRuntime {
		t.Errorf("Current() = %+v after publish, want {false true}", got)
	}
}
