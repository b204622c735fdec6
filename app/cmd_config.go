package app

import (
	"io"

	"github.com/lefinal/meh"
)

// commandConfig prints the effective configuration as YAML.
func commandConfig(writer io.Writer, options commandOptions) error {
	raw, err := options.Config.YAML()
	if err != nil {
		return meh.Wrap(err, "config to yaml", nil)
	}
	_, err = writer.Write(raw)
	if err != nil {
		return meh.NewInternalErrFromErr(err, "write config", nil)
	}
	return nil
}
