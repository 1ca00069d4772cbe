package mallorder

import "errors"

var (
	ErrUnknownMall         = errors.New("no template registered for this mall")
	ErrTemplateDisabled    = errors.New("mall template is disabled")
	ErrInvalidDataStart    = errors.New("data start row must come after the header row")
	ErrUploadNotFound      = errors.New("upload not found")
	ErrNotMallUpload       = errors.New("upload is not a shopping-mall upload")
	ErrNoSnapshot          = errors.New("upload has no source snapshot")
	ErrTemplateUnavailable = errors.New("mall template is missing or disabled")
	ErrNoExportConfig      = errors.New("mall template has no export config")
)
