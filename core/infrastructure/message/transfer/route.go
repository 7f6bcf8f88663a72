package transfer

const MatchingSuccess = "matching.success"

const TablePush = "table.push"

// 入站路由，撮合端 / 连接端发到桌子节点
const TableCreate = "table.create"           // 开桌
const TableDiscard = "table.play.discard"    // 出牌
const TableClaim = "table.play.claim"        // 鸣牌响应（胡/杠/碰/吃）
const TablePass = "table.play.pass"          // 过
const TableSelfAction = "table.play.self"    // 自摸胡 / 暗杠 / 加杠
const TableReconnect = "table.reconnect"     // 断线重连

// 待选操作下发
const DispatchWaitMain = "gameplay.operations.main"
const DispatchWaitReaction = "gameplay.operations.reaction"

// 牌局推送路由
const GameplayRoundStart = "gameplay.round.start"   // 一局开始
const GameplayDraw = "gameplay.draw"                // 摸牌
const GameplayDiscard = "gameplay.discard"          // 出牌
const GameplayChi = "gameplay.chi"                  // 吃牌
const GameplayPeng = "gameplay.peng"                // 碰牌
const GameplayGang = "gameplay.gang"                // 明杠
const GameplayAnkan = "gameplay.ankan"              // 暗杠
const GameplayKakan = "gameplay.kakan"              // 加杠
const GameplayHu = "gameplay.hu"                    // 点炮胡（可能多家同时）
const GameplaySelfHu = "gameplay.selfhu"            // 自摸胡
const GameplayClaimResult = "gameplay.claim.result" // 响应窗口裁决结果
const GameplayRoundEnd = "gameplay.round.end"       // 一局结束
const GameplayGameEnd = "gameplay.game.end"         // 整场结束
const GameplayStateUpdate = "gameplay.state.update" // 状态快照
