package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewAuthService),
	fx.Provide(NewCellService),
	fx.Provide(NewGraphService),
	fx.Provide(NewAccountService),
	fx.Provide(NewAclService),
	fx.Provide(NewMessageService),
	fx.Provide(NewApprovalService),
)
