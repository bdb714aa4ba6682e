package strata

import (
	"fmt"
	"strings"
)

// DefaultRowsPerPage is the number of top-level rows carried by each page
// when the writer configuration does not specify one.
const DefaultRowsPerPage = 8192

// The WriterConfig type carries configuration options for column writers.
//
// The zero value is not valid; use DefaultWriterConfig as a starting point:
//
//	config := strata.DefaultWriterConfig()
//	config.RowsPerPage = 1024
//	writer, err := strata.NewColumnWriter(output, config)
type WriterConfig struct {
	// RowsPerPage is the fixed number of top-level rows encoded into each
	// page; only the final page of a column may hold fewer.
	RowsPerPage int

	// Selector picks the compression codec of each value block. Defaults to
	// the adaptive sampling policy; use FixedCodec to pin a codec.
	Selector Selector
}

// DefaultWriterConfig returns a new WriterConfig populated with default
// values.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		RowsPerPage: DefaultRowsPerPage,
		Selector:    DefaultSelector,
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *WriterConfig) Validate() error {
	const baseName = "strata.(*WriterConfig)."
	return errorInvalidConfiguration(
		validatePositiveInt(baseName+"RowsPerPage", c.RowsPerPage),
		validateNotNil(baseName+"Selector", c.Selector),
	)
}

func errorInvalidConfiguration(reasons ...string) error {
	var err *invalidConfiguration

	for _, reason := range reasons {
		if reason != "" {
			if err == nil {
				err = new(invalidConfiguration)
			}
			err.reasons = append(err.reasons, reason)
		}
	}

	if err != nil {
		return err
	}
	return nil
}

type invalidConfiguration struct {
	reasons []string
}

func (err *invalidConfiguration) Error() string {
	errorMessage := new(strings.Builder)
	for _, reason := range err.reasons {
		errorMessage.WriteString(reason)
		errorMessage.WriteString("\n")
	}
	errorString := errorMessage.String()
	if errorString != "" {
		errorString = errorString[:len(errorString)-1]
	}
	return errorString
}

func validatePositiveInt(optionName string, optionValue int) string {
	if optionValue > 0 {
		return ""
	}
	return optionMustBePositive(optionName, optionValue)
}

func validateNotNil(optionName string, optionValue interface{}) string {
	if optionValue != nil {
		return ""
	}
	return optionMustBeNonNil(optionName)
}

func optionMustBePositive(optionName string, optionValue int) string {
	return fmt.Sprintf("invalid option %s=%d: value must be positive", optionName, optionValue)
}

func optionMustBeNonNil(optionName string) string {
	return fmt.Sprintf("invalid option %s=nil: value must be non-nil", optionName)
}
