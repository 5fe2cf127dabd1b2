// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 batch 提供自适应批处理引擎：把任意条目列表切分成批次，交给调用方注入
的远程操作执行，并在未知的外部限流、部分失败与进度上报三重约束下跑完全部
条目。

# 概述

Processor 拥有主循环：

 1. 向 AdaptiveSizer 询问下一批大小，从剩余队列头部切出对应条目
 2. 在令牌桶上等待 1 个令牌（背压点）
 3. 在 OperationTimeout 保护下调用 Operation，最多尝试 MaxRetries 次，
    两次尝试之间按 min(InitialBackoff*Multiplier^attempt, MaxBackoff) 退避
 4. 成功/失败反馈给批大小策略与进度跟踪器，按 ReportInterval 上报进度
 5. 队列为空后汇总为 Result

# 失败语义

  - 超时：重试；最后一次仍超时则整批条目以超时错误记为失败
  - 限流：按 retry.Classifier 识别，重试并以更陡的系数缩小批次
  - 其他错误：重试并正常缩小批次；耗尽后整批记为失败
  - 重试以批次为单位，耗尽后批内每个条目都带同一个终止错误

Process 从不返回 error，所有失败都以 (条目, 错误) 形式出现在
Result.FailedItems 中，Result.Status 给出 COMPLETED / PARTIAL / FAILED。

# 并发模型

单次 Process 是顺序循环，同一时刻只有一个批次在执行，只有令牌桶等待、
Operation 调用与退避会挂起。批内并发由 Operation 自行决定，参见
ConcurrentOperation。

Operation 收到的 ctx 携带运行元数据，可用 RunIDFromContext、
BatchIndexFromContext、AttemptFromContext 读取，例如作为上游幂等键。

# 使用方式

	p, err := batch.New[string, string](batch.DefaultConfig(), batch.WithLogger(logger))
	if err != nil {
	    return err
	}
	res := p.Process(ctx, ids, func(ctx context.Context, ids []string) ([]string, []batch.ItemError[string], error) {
	    // 调用上游批量接口
	    return sent, nil, nil
	}, func(r progress.Report) {
	    logger.Info(r.String())
	})
*/
package batch
