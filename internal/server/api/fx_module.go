package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewSystemHandlers),
	fx.Provide(NewAuthHandlers),
	fx.Provide(NewCellCtlHandlers),
	fx.Provide(NewAclHandlers),
	fx.Provide(NewPropHandlers),
	fx.Provide(NewMessageHandlers),
)
