package scheduler_test

import logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"

func logNop() logx.Logger { return logx.Nop() }
