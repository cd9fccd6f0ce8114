package detector

import (
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/rxtech-lab/argo-setups/pkg/utils"
)

// New builds the detector for a setup. params overlays the setup defaults and
// is validated before the detector is returned.
func New(name types.SetupName, params map[string]any, opts ...Option) (Detector, error) {
	o := buildOptions(opts)

	switch name {
	case types.SetupMorningGap:
		return fromMap(name, params, DefaultGapFillParams(), newGapFill, o)
	case types.SetupMorningMomentum:
		return fromMap(name, params, DefaultMomentumParams(), newMomentum, o)
	case types.SetupOpeningRangeBreak:
		return fromMap(name, params, DefaultOpeningRangeParams(), newOpeningRangeBreak, o)
	case types.SetupClosingReversion:
		return fromMap(name, params, DefaultClosingReversionParams(), newClosingReversion, o)
	case types.SetupBreakout:
		return fromMap(name, params, DefaultBreakoutParams(), newBreakout, o)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedSetup, "unsupported setup %q", name)
	}
}

func fromMap[P any, D Detector](name types.SetupName, raw map[string]any, params P, build func(P, options) (D, error), o options) (Detector, error) {
	if err := decodeParams(name, raw, &params); err != nil {
		return nil, err
	}

	d, err := build(params, o)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// DefaultParams returns the default parameter struct of every setup, keyed by setup.
func DefaultParams() map[types.SetupName]any {
	return map[types.SetupName]any{
		types.SetupMorningGap:        DefaultGapFillParams(),
		types.SetupMorningMomentum:   DefaultMomentumParams(),
		types.SetupOpeningRangeBreak: DefaultOpeningRangeParams(),
		types.SetupClosingReversion:  DefaultClosingReversionParams(),
		types.SetupBreakout:          DefaultBreakoutParams(),
	}
}

// ParamsSchema returns the JSON schema of a setup's parameters.
func ParamsSchema(name types.SetupName) (string, error) {
	params, ok := DefaultParams()[name]
	if !ok {
		return "", errors.Newf(errors.ErrCodeUnsupportedSetup, "unsupported setup %q", name)
	}

	schema, err := utils.GetSchema(params, utils.SchemaOptions{Inline: true, Indent: true})
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to build schema for %s", name)
	}

	return schema, nil
}
