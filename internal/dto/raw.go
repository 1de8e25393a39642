package dto

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// TagKey names the discriminator field of an encoded raw input event.
const TagKey = "tag"

var ErrUnknownTag = errors.New("unknown input tag")

// DecodeRawInput decodes a loosely typed payload (JSON object, YAML map) into the
// raw input union. Unknown fields are rejected.
func DecodeRawInput(payload map[string]any) (domain.RawInputEvent, error) {
	tag, _ := payload[TagKey].(string)
	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		if k != TagKey {
			fields[k] = v
		}
	}

	switch domain.InputTag(tag) {
	case domain.TagScanData:
		var ev domain.ScanData
		if err := decode(fields, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case domain.TagKeyedData:
		var ev domain.KeyedData
		if err := decode(fields, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case domain.TagKeyListenerData:
		var ev domain.KeyListenerData
		if err := decode(fields, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case domain.TagPaymentData:
		var ev domain.PaymentData
		if err := decode(fields, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case domain.TagUiData:
		var ev domain.UiData
		if err := decode(fields, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
}

func decode(fields map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("invalid input payload: %w", err)
	}
	return nil
}
