package config

import (
	"testing"

	"go.viam.com/test"
)

func TestDecodeOverridesDefaults(t *testing.T) {
	raw := map[string]interface{}{
		"turningRadius": 12.5,
		"k":             7,
		"whichPlanner":  "BitStar",
	}
	cfg, err := Decode(Default(), raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TurningRadius, test.ShouldEqual, 12.5)
	test.That(t, cfg.K, test.ShouldEqual, 7)
	test.That(t, cfg.WhichPlanner, test.ShouldEqual, BitStar)
	// untouched fields retain the base defaults
	test.That(t, cfg.MaxSpeed, test.ShouldEqual, Default().MaxSpeed)
}

func TestDecodeInvalidWhichPlanner(t *testing.T) {
	raw := map[string]interface{}{"whichPlanner": "Warp"}
	_, err := Decode(Default(), raw)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeWeaklyTypedNumeric(t *testing.T) {
	raw := map[string]interface{}{"lineWidth": "6"}
	cfg, err := Decode(Default(), raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.LineWidth, test.ShouldEqual, 6.0)
}
