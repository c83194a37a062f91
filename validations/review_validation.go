package validations

import (
	"context"

	"github.com/agromov/postwatch/config"
	domainReview "github.com/agromov/postwatch/domains/review"
	pkgError "github.com/agromov/postwatch/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateApprove(ctx context.Context, request domainReview.ApproveRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.RecordID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateChannel(ctx context.Context, channel config.Channel) error {
	err := validation.ValidateStructWithContext(ctx, &channel,
		validation.Field(&channel.Name, validation.Required),
		validation.Field(&channel.ChannelID, validation.Required),
		validation.Field(&channel.ChatID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
