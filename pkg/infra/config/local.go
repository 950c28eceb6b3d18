package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

func loadLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path), goerr.T(types.ErrTagConfig))
	}
	return data, nil
}
