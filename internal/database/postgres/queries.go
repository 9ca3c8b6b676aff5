package postgres

// ProductSelect reads products with the name of the user who last touched their stock.
const ProductSelect = `
    SELECT p.id, p.category_id, p.sku, p.name, p.cost_price, p.sale_price,
           p.stock_quantity, p.reserved_stock, p.reorder_point, p.version, p.is_active,
           p.stock_last_updated, p.last_updated_by_id, p.created_at, p.updated_at,
           u.full_name AS last_updated_by_name
    FROM products p
    LEFT JOIN users u ON u.id = p.last_updated_by_id`

// MovementColumns lists inventory_movements columns in model order. seq is internal.
const MovementColumns = `id, product_id, user_id, movement_type, quantity, previous_stock, new_stock,
    reason, reference, notes, related_order_id, created_at`

const InsertMovement = `
    INSERT INTO inventory_movements (
        id, product_id, user_id, movement_type, quantity, previous_stock, new_stock,
        reason, reference, notes, related_order_id, created_at
    )
    VALUES (
        :id, :product_id, :user_id, :movement_type, :quantity, :previous_stock, :new_stock,
        :reason, :reference, :notes, :related_order_id, :created_at
    )`
